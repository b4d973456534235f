// Command tinysynth loads a SoundFont 2 bank and plays a short demo
// phrase on it, either live through the default audio device or
// rendered to a WAV file.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/Alextopher/tinysynth"
	"github.com/Alextopher/tinysynth/config"
	"github.com/Alextopher/tinysynth/output"
	"github.com/Alextopher/tinysynth/sf2"
	"github.com/Alextopher/tinysynth/stream"
)

func main() {
	soundfontPath := flag.StringP("soundfont", "s", "", "path to a .sf2 bank (required)")
	wavPath := flag.StringP("wav", "w", "", "render a demo phrase to this WAV file instead of playing live")
	bank := flag.Int("bank", 0, "preset bank to play")
	program := flag.Int("program", 0, "preset program number to play")
	note := flag.Int("note", 60, "MIDI key to trigger")
	duration := flag.Duration("duration", 2*time.Second, "how long to hold the note before release")
	logLevel := flag.String("log-level", "info", "logrus level (debug, info, warn, error)")
	flag.Parse()

	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	if err := config.Load(); err != nil {
		logrus.WithError(err).Warn("tinysynth: using defaults, failed to load config file")
	}

	if *soundfontPath == "" {
		fmt.Fprintln(os.Stderr, "tinysynth: -soundfont is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*soundfontPath, *wavPath, *bank, *program, *note, *duration); err != nil {
		logrus.WithError(err).Fatal("tinysynth: exiting")
	}
}

func run(soundfontPath, wavPath string, bank, program, note int, hold time.Duration) error {
	f, err := os.Open(soundfontPath)
	if err != nil {
		return fmt.Errorf("opening soundfont: %w", err)
	}
	defer f.Close()

	font, err := sf2.Load(stream.NewFile(f))
	if err != nil {
		return fmt.Errorf("loading soundfont: %w", err)
	}
	defer font.Close()

	cfg := config.Get()

	synth := tinysynth.New(font)
	synth.SetMaxVoices(cfg.MaxVoices)
	synth.SetVolume(float32(cfg.MasterVolume))

	presetIndex := synth.PresetIndex(bank, program)
	if presetIndex == -1 {
		return fmt.Errorf("no preset at bank %d, program %d", bank, program)
	}

	noteOn := func() { synth.NoteOn(presetIndex, note, 1.0) }
	noteOff := func() { synth.NoteOff(presetIndex, note) }

	if wavPath != "" {
		return renderToWAV(synth, wavPath, noteOn, noteOff, hold)
	}
	return playLive(synth, cfg.Stereo, noteOn, noteOff, hold)
}

// renderToWAV renders the demo phrase offline to a mono 44.1kHz WAV
// file: noteOn, hold for the requested duration of audio, noteOff, then
// drain until every voice has fully released (at most 200 further reads).
func renderToWAV(synth *tinysynth.Synth, path string, noteOn, noteOff func(), hold time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rs, err := output.NewStream(synth, output.Format{SampleRate: 44100, Stereo: false})
	if err != nil {
		return err
	}

	var pcm []byte
	buf := make([]byte, 4096)

	noteOn()
	holdBytes := int(hold.Seconds()*44100) * 2
	for len(pcm) < holdBytes {
		n, rerr := rs.Read(buf)
		pcm = append(pcm, buf[:n]...)
		if rerr != nil {
			break
		}
	}
	noteOff()
	for i := 0; i < 200 && synth.ActiveVoiceCount() > 0; i++ {
		n, rerr := rs.Read(buf)
		pcm = append(pcm, buf[:n]...)
		if rerr != nil {
			break
		}
	}

	return writeWAV(f, pcm, 44100, 1)
}

func writeWAV(f *os.File, pcm []byte, sampleRate, channels int) error {
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := f.Write(header); err != nil {
		return err
	}
	_, err := f.Write(pcm)
	return err
}

// playLive streams the demo phrase to the default output device.
func playLive(synth *tinysynth.Synth, stereo bool, noteOn, noteOff func(), hold time.Duration) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	channels := 1
	if stereo {
		channels = 2
	}
	out := make([]int16, 256*channels)
	paStream, err := portaudio.OpenDefaultStream(0, channels, 44100, len(out)/channels, &out)
	if err != nil {
		return fmt.Errorf("opening audio stream: %w", err)
	}
	defer paStream.Close()

	rs, err := output.NewStream(synth, output.Format{SampleRate: 44100, Stereo: stereo})
	if err != nil {
		return err
	}

	if err := paStream.Start(); err != nil {
		return err
	}
	defer paStream.Stop()

	raw := make([]byte, len(out)*2)
	noteOn()
	deadline := time.Now().Add(hold)
	for time.Now().Before(deadline) {
		if err := fillAndWrite(rs, paStream, out, raw); err != nil {
			return err
		}
	}
	noteOff()
	for i := 0; i < 200 && synth.ActiveVoiceCount() > 0; i++ {
		if err := fillAndWrite(rs, paStream, out, raw); err != nil {
			return err
		}
	}
	return nil
}

func fillAndWrite(rs *output.Stream, paStream *portaudio.Stream, out []int16, raw []byte) error {
	filled := 0
	for filled < len(raw) {
		n, err := rs.Read(raw[filled:])
		if err != nil {
			return err
		}
		filled += n
	}
	for i := range out {
		out[i] = int16(raw[i*2]) | int16(raw[i*2+1])<<8
	}
	return paStream.Write()
}
