// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ParticleVertexShader billboards one instanced quad per particle.
//
//go:embed particle.vert
var ParticleVertexShader string

// ParticleFragmentShader draws a soft glowing disc.
//
//go:embed particle.frag
var ParticleFragmentShader string
