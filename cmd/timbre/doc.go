// Command timbre classifies a speaker's voice timbre from an audio file or URL.
//
//	timbre -f voice.m4a
//	timbre -u https://example.com/clip.mp3 -g 1 -j
//	timbre models --gender 0
//	timbre config init ~/.config/sonido-timbre/config.toml
package main
