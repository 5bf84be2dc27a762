package opengl

// MaxLights is the number of scene lights the surface shader evaluates.
const MaxLights = 4

// ── Procedural face ───────────────────────────────────────────────────────────

// proceduralVertSrc maps the bake quad's UVs to face coordinates.
const proceduralVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 2) in vec2 inUV;

uniform mat4 mvp;

out vec2 fragST;

void main() {
    fragST = inUV;
    gl_Position = mvp * vec4(inPosition, 1.0);
}
` + "\x00"

// proceduralFragSrc evaluates seeded 3D value-noise fbm on the unit sphere
// direction of each texel, so neighbouring faces meet without seams. The red
// channel rises with elevation and doubles as the height map.
const proceduralFragSrc = `
#version 410 core
in vec2 fragST;
out vec4 outColor;

uniform vec3 faceNormal;
uniform vec3 faceU;
uniform vec3 faceV;
uniform vec3 seedOffset;

float hash(vec3 p) {
    p = fract(p * 0.3183099 + 0.1);
    p *= 17.0;
    return fract(p.x * p.y * p.z * (p.x + p.y + p.z));
}

float noise(vec3 x) {
    vec3 i = floor(x);
    vec3 f = fract(x);
    f = f * f * (3.0 - 2.0 * f);
    return mix(mix(mix(hash(i + vec3(0, 0, 0)), hash(i + vec3(1, 0, 0)), f.x),
                   mix(hash(i + vec3(0, 1, 0)), hash(i + vec3(1, 1, 0)), f.x), f.y),
               mix(mix(hash(i + vec3(0, 0, 1)), hash(i + vec3(1, 0, 1)), f.x),
                   mix(hash(i + vec3(0, 1, 1)), hash(i + vec3(1, 1, 1)), f.x), f.y), f.z);
}

float fbm(vec3 p) {
    float sum = 0.0;
    float amp = 0.5;
    for (int i = 0; i < 6; i++) {
        sum += amp * noise(p);
        p = p * 2.03 + vec3(1.7, 9.2, 3.1);
        amp *= 0.5;
    }
    return sum;
}

void main() {
    vec3 dir = normalize(faceNormal + faceU * (2.0 * fragST.x - 1.0) + faceV * (2.0 * fragST.y - 1.0));
    vec3 p = dir * 2.5 + seedOffset;

    float elevation = fbm(p);
    float moisture = fbm(p * 1.7 + vec3(31.0));
    float latitude = abs(dir.y);

    vec3 color;
    if (elevation < 0.46) {
        color = mix(vec3(0.02, 0.06, 0.25), vec3(0.06, 0.22, 0.45), elevation / 0.46);
    } else if (elevation < 0.48) {
        color = vec3(0.14, 0.30, 0.40);
    } else if (elevation < 0.58) {
        vec3 dry = vec3(0.30, 0.28, 0.12);
        vec3 wet = vec3(0.18, 0.40, 0.12);
        color = mix(dry, wet, clamp(moisture * 1.5 - 0.25, 0.0, 1.0));
    } else if (elevation < 0.68) {
        color = mix(vec3(0.42, 0.34, 0.22), vec3(0.58, 0.52, 0.48), (elevation - 0.58) / 0.10);
    } else {
        color = vec3(0.95);
    }

    float ice = smoothstep(0.80, 0.92, latitude + (moisture - 0.5) * 0.1);
    color = mix(color, vec3(0.92, 0.95, 1.0), ice);

    outColor = vec4(color, 1.0);
}
` + "\x00"

// ── Lit surface ───────────────────────────────────────────────────────────────

const surfaceVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 4) in vec3 inTangent;
layout(location = 5) in vec3 inBitangent;

uniform mat4 model;
uniform mat4 viewProj;

out vec3 fragPos;
out vec3 fragNormal;
out vec3 fragTangent;
out vec3 fragBitangent;
out vec2 fragUV;

void main() {
    vec4 world = model * vec4(inPosition, 1.0);
    mat3 normalMat = mat3(transpose(inverse(model)));
    fragPos = world.xyz;
    fragNormal = normalize(normalMat * inNormal);
    fragTangent = normalize(mat3(model) * inTangent);
    fragBitangent = normalize(mat3(model) * inBitangent);
    fragUV = inUV;
    gl_Position = viewProj * world;
}
` + "\x00"

// surfaceFragSrc shades with Lambert diffuse plus a Blinn-Phong term, after
// perturbing the normal with finite differences of the bump map's red channel.
const surfaceFragSrc = `
#version 410 core
#define MAX_LIGHTS 4

in vec3 fragPos;
in vec3 fragNormal;
in vec3 fragTangent;
in vec3 fragBitangent;
in vec2 fragUV;
out vec4 outColor;

uniform vec3 albedo;
uniform float shininess;
uniform sampler2D albedoMap;
uniform bool hasAlbedoMap;
uniform sampler2D bumpMap;
uniform bool hasBumpMap;
uniform float bumpScale;

uniform vec3 ambient;
uniform vec3 viewPos;
uniform int lightCount;
uniform int lightType[MAX_LIGHTS];
uniform vec3 lightPos[MAX_LIGHTS];
uniform vec3 lightDir[MAX_LIGHTS];
uniform vec3 lightColor[MAX_LIGHTS];

vec3 bumpedNormal(vec3 n) {
    vec2 texel = 1.0 / vec2(textureSize(bumpMap, 0));
    float h  = texture(bumpMap, fragUV).r;
    float hu = texture(bumpMap, fragUV + vec2(texel.x, 0.0)).r;
    float hv = texture(bumpMap, fragUV + vec2(0.0, texel.y)).r;
    float k = bumpScale * 100.0;
    return normalize(n - k * ((hu - h) * fragTangent + (hv - h) * fragBitangent));
}

void main() {
    vec3 n = normalize(fragNormal);
    if (hasBumpMap) {
        n = bumpedNormal(n);
    }

    vec3 base = albedo;
    if (hasAlbedoMap) {
        base *= texture(albedoMap, fragUV).rgb;
    }

    vec3 v = normalize(viewPos - fragPos);
    vec3 light = ambient;
    for (int i = 0; i < lightCount && i < MAX_LIGHTS; i++) {
        vec3 l = lightType[i] == 0 ? normalize(-lightDir[i]) : normalize(lightPos[i] - fragPos);
        float diff = max(dot(n, l), 0.0);
        vec3 h = normalize(l + v);
        float spec = diff > 0.0 ? pow(max(dot(n, h), 0.0), shininess) * 0.2 : 0.0;
        light += lightColor[i] * (diff + spec);
    }

    vec3 color = base * light * 5.0;
    color = color / (color + vec3(1.0));
    color = pow(color, vec3(1.0 / 2.2));
    outColor = vec4(color, 1.0);
}
` + "\x00"

// ── Atmosphere glow ───────────────────────────────────────────────────────────

const atmosphereVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;

uniform mat4 model;
uniform mat4 viewProj;

out vec3 fragPos;
out vec3 fragNormal;

void main() {
    vec4 world = model * vec4(inPosition, 1.0);
    fragPos = world.xyz;
    fragNormal = normalize(mat3(transpose(inverse(model))) * inNormal);
    gl_Position = viewProj * world;
}
` + "\x00"

// atmosphereFragSrc draws only back faces, so the normal points away from
// the viewer and the glow peaks at the limb.
const atmosphereFragSrc = `
#version 410 core
in vec3 fragPos;
in vec3 fragNormal;
out vec4 outColor;

uniform vec3 viewPos;
uniform vec3 glowColor;
uniform float coefficient;
uniform float power;

void main() {
    vec3 v = normalize(viewPos - fragPos);
    float intensity = pow(max(coefficient - dot(normalize(fragNormal), v), 0.0), power);
    outColor = vec4(glowColor * intensity, intensity);
}
` + "\x00"

// ── Unlit ─────────────────────────────────────────────────────────────────────

const unlitFragSrc = `
#version 410 core
in vec3 fragPos;
in vec3 fragNormal;
in vec3 fragTangent;
in vec3 fragBitangent;
in vec2 fragUV;
out vec4 outColor;

uniform vec3 albedo;
uniform sampler2D albedoMap;
uniform bool hasAlbedoMap;

void main() {
    vec3 c = albedo;
    if (hasAlbedoMap) {
        c *= texture(albedoMap, fragUV).rgb;
    }
    outColor = vec4(c, 1.0);
}
` + "\x00"
