package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"go.aimuz.me/hober/card"
)

// ErrNoPlayer is returned when no audio player binary is installed.
var ErrNoPlayer = errors.New("no audio player found (install mpg123 or ffmpeg)")

// playerCommands are tried in order; the audio file path is appended.
var playerCommands = [][]string{
	{"afplay"},
	{"mpg123", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// AudioPlayer plays synthesized speech through an external player process.
// One clip plays at a time; a new clip stops the previous one.
type AudioPlayer struct {
	command []string

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

var _ card.Player = (*AudioPlayer)(nil)

// NewAudioPlayer picks the first available player binary.
func NewAudioPlayer() (*AudioPlayer, error) {
	for _, cmd := range playerCommands {
		if path, err := exec.LookPath(cmd[0]); err == nil {
			return NewAudioPlayerWith(append([]string{path}, cmd[1:]...)), nil
		}
	}
	return nil, ErrNoPlayer
}

// NewAudioPlayerWith uses command to play files.
func NewAudioPlayerWith(command []string) *AudioPlayer {
	return &AudioPlayer{command: command}
}

// Play writes src to a temporary file and blocks until the player exits.
func (p *AudioPlayer) Play(ctx context.Context, src card.AudioSource) error {
	data, err := src.Bytes()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "hober_speech_*.mp3")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	id := p.start(cancel)
	defer p.done(id)

	args := append(p.command[1:len(p.command):len(p.command)], f.Name())
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w", p.command[0], err)
	}

	slog.Debug("audio played", "bytes", len(data))
	return nil
}

// start stops the playing clip and records cancel as the current one.
func (p *AudioPlayer) start(cancel context.CancelFunc) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.seq++
	return p.seq
}

func (p *AudioPlayer) done(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq == id {
		p.cancel = nil
	}
}
