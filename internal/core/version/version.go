package version

// Version is the current ytdl release
const Version = "0.1.0"
