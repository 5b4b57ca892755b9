package shader

const cubeVertexSource = `
struct VertexInput {
    @location(0) pos: vec4<f32>,
    @location(1) tex_coord: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) tex_coord: vec2<f32>,
};

struct Locals {
    transform: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> u_Transform: Locals;

@vertex
fn vs_main(v_in: VertexInput) -> VertexOutput {
    var result: VertexOutput;
    result.position = u_Transform.transform * v_in.pos;
    result.tex_coord = v_in.tex_coord;
    return result;
}
`

const cubeFragmentSource = `
//@pso:texture_sampler 1 0 t_Color texture_2d<f32>

@fragment
fn fs_main(@location(0) tex_coord: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(t_Color, t_Color_sampler, tex_coord);
}
`

const computeSource = `
struct Params {
    scale: f32,
    count: u32,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> points: array<vec4<f32>>;
@group(0) @binding(2) var output: texture_storage_2d<rgba8unorm, write>;
@group(0) @binding(3) var<storage, read_write> counter: atomic<u32>;

@compute @workgroup_size(8, 8)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    let v = points[id.x] * params.scale;
    textureStore(output, vec2<i32>(i32(id.x), i32(id.y)), v);
    atomicAdd(&counter, 1u);
}
`

const shadowFragmentSource = `
//@pso:pair shadowMap shadowCompare
@group(2) @binding(0) var shadowMap: texture_depth_2d;
@group(2) @binding(1) var shadowCompare: sampler_comparison;

@fragment
fn fs_main(@location(0) coord: vec3<f32>) -> @location(0) vec4<f32> {
    let lit = textureSampleCompare(shadowMap, shadowCompare, coord.xy, coord.z);
    return vec4<f32>(lit, lit, lit, 1.0);
}
`
