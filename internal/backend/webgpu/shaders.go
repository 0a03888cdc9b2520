//go:build windows

package webgpu

// workgroupSize is the number of invocations per workgroup.
const workgroupSize = 256

// fillShader sets the first size elements of dst to value.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> dst: array<f32>;

struct Params {
    size: u32,
    value: f32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let idx = global_id.y * groups.x * 256u + global_id.x;
    if (idx < params.size) {
        dst[idx] = params.value;
    }
}
`

// mulBroadcastShader multiplies every row of buf by vec.
const mulBroadcastShader = `
@group(0) @binding(0) var<storage, read> vec: array<f32>;
@group(0) @binding(1) var<storage, read_write> buf: array<f32>;

struct Params {
    size: u32,
    row_len: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let idx = global_id.y * groups.x * 256u + global_id.x;
    if (idx < params.size) {
        buf[idx] = buf[idx] * vec[idx % params.row_len];
    }
}
`

// addBroadcastShader adds vec to every row of buf.
const addBroadcastShader = `
@group(0) @binding(0) var<storage, read> vec: array<f32>;
@group(0) @binding(1) var<storage, read_write> buf: array<f32>;

struct Params {
    size: u32,
    row_len: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let idx = global_id.y * groups.x * 256u + global_id.x;
    if (idx < params.size) {
        buf[idx] = buf[idx] + vec[idx % params.row_len];
    }
}
`

// normalizeRowsShader normalizes each row to zero mean and unit population variance.
// One invocation handles one row.
const normalizeRowsShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    rows: u32,
    depth: u32,
    epsilon: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let row = global_id.y * groups.x * 256u + global_id.x;
    if (row >= params.rows) {
        return;
    }
    let base = row * params.depth;
    let n = f32(params.depth);

    var sum = 0.0;
    for (var j = 0u; j < params.depth; j = j + 1u) {
        sum = sum + input[base + j];
    }
    let mean = sum / n;

    var sq = 0.0;
    for (var j = 0u; j < params.depth; j = j + 1u) {
        let d = input[base + j] - mean;
        sq = sq + d * d;
    }
    let inv = inverseSqrt(sq / n + params.epsilon);

    for (var j = 0u; j < params.depth; j = j + 1u) {
        output[base + j] = (input[base + j] - mean) * inv;
    }
}
`

// batchNormShader normalizes each row with single-pass statistics and applies the
// per-row scale and shift.
const batchNormShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> scale: array<f32>;
@group(0) @binding(2) var<storage, read> shift: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;

struct Params {
    rows: u32,
    depth: u32,
    epsilon: f32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>, @builtin(num_workgroups) groups: vec3<u32>) {
    let row = global_id.y * groups.x * 256u + global_id.x;
    if (row >= params.rows) {
        return;
    }
    let base = row * params.depth;

    var mean = 0.0;
    var m2 = 0.0;
    for (var j = 0u; j < params.depth; j = j + 1u) {
        let v = input[base + j];
        let d = v - mean;
        mean = mean + d / f32(j + 1u);
        m2 = m2 + d * (v - mean);
    }
    let k = scale[row] * inverseSqrt(m2 / f32(params.depth) + params.epsilon);

    for (var j = 0u; j < params.depth; j = j + 1u) {
        output[base + j] = (input[base + j] - mean) * k + shift[row];
    }
}
`
