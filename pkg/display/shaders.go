package display

// Shader sources for the window device. The frame arrives as a single-channel
// texture of rendered glyphs which is stretched over a fullscreen quad.

const quadVertexShader = `
#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoord;

out vec2 TexCoord;

void main() {
    gl_Position = vec4(aPos, 0.0, 1.0);
    TexCoord = aTexCoord;
}
`

const glyphFragmentShader = `
#version 410 core
in vec2 TexCoord;
out vec4 FragColor;

uniform sampler2D glyphTexture;
uniform vec3 glyphColor;

void main() {
    float intensity = texture(glyphTexture, TexCoord).r;
    FragColor = vec4(glyphColor * intensity, 1.0);
}
`
