package extract

// Package extract is the stream catalog access layer: it wraps the opaque
// yt-dlp extraction engine (github.com/lrstanley/go-ytdlp) and exposes the
// few probe/fetch shapes the rest of the service composes. The engine's
// option surface never leaks past this package.
