package display

import (
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gopxl/mainthread/v2"
	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/pkg/config"
)

// Window presents frames in an OpenGL window. Glyphs are drawn on the CPU
// into a grayscale image, uploaded as a texture and stretched over a
// fullscreen quad. Every GL and GLFW call runs on the main thread, so the
// program must be started through mainthread.Run.
type Window struct {
	window *glfw.Window
	canvas *glyphCanvas
	log    *logger.Logger

	vertexArray   uint32
	vertexBuffer  uint32
	elementBuffer uint32
	textureID     uint32
	shaderProgram uint32
	colorLocation int32
	texWidth      int32
	texHeight     int32

	done      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
}

// NewWindow opens a window of scale pixels per cell column; rows are twice
// as tall to keep the terminal's cell shape.
func NewWindow(width, height, scale int, vsync bool, log *logger.Logger) (*Window, error) {
	if scale < 1 {
		scale = 8
	}
	w := &Window{
		canvas:    newGlyphCanvas(width, height),
		log:       log,
		texWidth:  int32(width * CellWidth),
		texHeight: int32(height * CellHeight),
		done:      make(chan struct{}),
	}
	if err := mainthread.CallErr(func() error {
		return w.init(width*scale, height*scale*2, vsync)
	}); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Window) init(pixelWidth, pixelHeight int, vsync bool) error {
	if err := glfw.Init(); err != nil {
		return &InitError{Device: config.DeviceWindow, Code: CodeWindow, Err: err}
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(pixelWidth, pixelHeight, "SimpleRenderer", nil, nil)
	if err != nil {
		glfw.Terminate()
		return &InitError{Device: config.DeviceWindow, Code: CodeWindow, Err: err}
	}
	window.MakeContextCurrent()
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return &InitError{Device: config.DeviceWindow, Code: CodeGL, Err: err}
	}
	w.window = window
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.requestQuit()
		}
	})

	if err := w.initResources(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return &InitError{Device: config.DeviceWindow, Code: CodeGL, Err: err}
	}
	w.log.Infof("window %dx%d, OpenGL %s", pixelWidth, pixelHeight, gl.GoStr(gl.GetString(gl.VERSION)))
	return nil
}

// initResources creates the quad, the glyph texture and the shader program.
func (w *Window) initResources() error {
	gl.GenVertexArrays(1, &w.vertexArray)
	gl.BindVertexArray(w.vertexArray)

	vertices := []float32{
		// Position    // Texture coordinates
		-1.0, -1.0, 0.0, 1.0, // Bottom left
		1.0, -1.0, 1.0, 1.0, // Bottom right
		1.0, 1.0, 1.0, 0.0, // Top right
		-1.0, 1.0, 0.0, 0.0, // Top left
	}
	gl.GenBuffers(1, &w.vertexBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vertexBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	indices := []uint32{
		0, 1, 2,
		2, 3, 0,
	}
	gl.GenBuffers(1, &w.elementBuffer)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, w.elementBuffer)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	program, err := createShaderProgram(quadVertexShader, glyphFragmentShader)
	if err != nil {
		return err
	}
	w.shaderProgram = program
	w.colorLocation = gl.GetUniformLocation(program, gl.Str("glyphColor\x00"))

	gl.GenTextures(1, &w.textureID)
	gl.BindTexture(gl.TEXTURE_2D, w.textureID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	data := make([]byte, w.texWidth*w.texHeight)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, w.texWidth, w.texHeight, 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(data))
	return nil
}

func (w *Window) requestQuit() {
	w.quitOnce.Do(func() { close(w.done) })
}

// Done is closed when the window is closed or ESC is pressed.
func (w *Window) Done() <-chan struct{} { return w.done }

// Present draws frame and swaps buffers.
func (w *Window) Present(frame []rune, width, height int) error {
	if width != w.canvas.width || height != w.canvas.height {
		return errors.Errorf("frame is %dx%d, window expects %dx%d", width, height, w.canvas.width, w.canvas.height)
	}
	img := w.canvas.draw(frame)

	mainthread.Call(func() {
		fbWidth, fbHeight := w.window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		gl.UseProgram(w.shaderProgram)
		gl.BindTexture(gl.TEXTURE_2D, w.textureID)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w.texWidth, w.texHeight, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		gl.Uniform3f(w.colorLocation, 0.7, 0.85, 0.7)

		gl.BindVertexArray(w.vertexArray)
		gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, nil)

		w.window.SwapBuffers()
		glfw.PollEvents()
		if w.window.ShouldClose() {
			w.requestQuit()
		}
	})
	return nil
}

// Close releases GL resources and the window.
func (w *Window) Close() error {
	w.closeOnce.Do(func() {
		mainthread.Call(func() {
			gl.DeleteVertexArrays(1, &w.vertexArray)
			gl.DeleteBuffers(1, &w.vertexBuffer)
			gl.DeleteBuffers(1, &w.elementBuffer)
			gl.DeleteTextures(1, &w.textureID)
			gl.DeleteProgram(w.shaderProgram)
			w.window.Destroy()
			glfw.Terminate()
		})
		w.requestQuit()
	})
	return nil
}

// createShaderProgram compiles and links a shader program from source
func createShaderProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		gl.DeleteProgram(program)
		gl.DeleteShader(vertexShader)
		gl.DeleteShader(fragmentShader)
		return 0, errors.Errorf("shader program linking failed: %v", log)
	}

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)
	return program, nil
}

// compileShader compiles a shader from source
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		gl.DeleteShader(shader)
		return 0, errors.Errorf("shader compilation failed: %v", log)
	}
	return shader, nil
}
