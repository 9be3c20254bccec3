package common

// MeshVersion is the current compiler version as a string.
const MeshVersion string = "0.1.0"

// MeshFileExt is the file extension for a Mesh source file.
const MeshFileExt string = ".mesh"

// MeshProfileFileName is the default name for build profile files.
const MeshProfileFileName string = "mesh.toml"
