package ir

// EngineVersion is the evmatch release reported by the CLI.
const EngineVersion = "0.1.0"
