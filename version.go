package flowpath

// Version is the release of the flowpath module and CLI.
var Version = "0.4.0"
