package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/nesgo/nes/nes"
)

// audioEngine is the sole audio-thread boundary: its callback only touches
// the console's ring buffer via ReadAudio, never the cpu/ppu/apu state
// directly, grounded on cmd/vnes/audio.go's portaudio wiring.
type audioEngine struct {
	console *nes.Console

	streamParams portaudio.StreamParameters
	stream       *portaudio.Stream
}

func newAudioEngine(console *nes.Console) (*audioEngine, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("newAudioEngine: unable to initialize portaudio: %s", err)
	}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("newAudioEngine: unable to get default host api: %s", err)
	}

	a := &audioEngine{console: console}
	a.streamParams = portaudio.LowLatencyParameters(nil, host.DefaultOutputDevice)
	a.streamParams.FramesPerBuffer = 256

	stream, err := portaudio.OpenStream(a.streamParams, a.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("newAudioEngine: unable to open stream: %s", err)
	}
	a.stream = stream

	return a, nil
}

func (a *audioEngine) play() error {
	if err := a.stream.Start(); err != nil {
		return fmt.Errorf("audioEngine.play: unable to start stream: %s", err)
	}
	return nil
}

func (a *audioEngine) close() error {
	if a.stream != nil {
		a.stream.Stop()
		a.stream.Close()
	}
	return portaudio.Terminate()
}

func (a *audioEngine) callback(out []float32) {
	channels := a.streamParams.Output.Channels

	mono := make([]float32, len(out)/channels)
	a.console.ReadAudio(mono)

	for i, f := range mono {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = f
		}
	}
}
