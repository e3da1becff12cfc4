// Package config holds the settings shared by the server and the CLI.
package config

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"time"

	"amply-waveform/internal/transcode"
	"amply-waveform/internal/waveform"
)

const (
	MethodLUFS      = "lufs"
	MethodHeuristic = "heuristic"

	TranscoderFFmpeg = "ffmpeg"
	TranscoderNative = "native"
)

type Config struct {
	Addr          string
	DataDir       string
	Interval      float64
	Method        string
	Transcoder    string
	FFmpegBin     string
	DecodeTimeout time.Duration
	Workers       int
	MaxUpload     int64
}

func Default() Config {
	workers := runtime.NumCPU() - 1
	if workers < 2 {
		workers = 2
	}
	return Config{
		Addr:          ":8080",
		DataDir:       "data/waveforms",
		Interval:      waveform.DefaultInterval,
		Method:        MethodLUFS,
		Transcoder:    TranscoderFFmpeg,
		FFmpegBin:     "ffmpeg",
		DecodeTimeout: transcode.DefaultTimeout,
		Workers:       workers,
		MaxUpload:     512 << 20,
	}
}

// RegisterFlags binds every field to a flag on fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "waveform store directory")
	fs.Float64Var(&c.Interval, "interval", c.Interval, "window duration in seconds")
	fs.StringVar(&c.Method, "method", c.Method, "loudness method: lufs or heuristic")
	fs.StringVar(&c.Transcoder, "transcoder", c.Transcoder, "MP3 decoder: ffmpeg or native")
	fs.StringVar(&c.FFmpegBin, "ffmpeg", c.FFmpegBin, "path to the ffmpeg binary")
	fs.DurationVar(&c.DecodeTimeout, "decode-timeout", c.DecodeTimeout, "ffmpeg time limit per file")
	fs.IntVar(&c.Workers, "workers", c.Workers, "concurrent analyses in batch mode")
	fs.Int64Var(&c.MaxUpload, "max-upload", c.MaxUpload, "maximum upload size in bytes")
}

// ApplyEnv overrides fields from AMPLY_* environment variables. Unset variables
// leave the field alone.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("AMPLY_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("AMPLY_DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookup("AMPLY_METHOD"); ok {
		c.Method = v
	}
	if v, ok := lookup("AMPLY_TRANSCODER"); ok {
		c.Transcoder = v
	}
	if v, ok := lookup("AMPLY_FFMPEG"); ok {
		c.FFmpegBin = v
	}
	if v, ok := lookup("AMPLY_INTERVAL"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid AMPLY_INTERVAL %q: %w", v, err)
		}
		c.Interval = f
	}
	if v, ok := lookup("AMPLY_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AMPLY_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Method {
	case MethodLUFS, MethodHeuristic:
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}
	switch c.Transcoder {
	case TranscoderFFmpeg, TranscoderNative:
	default:
		return fmt.Errorf("unknown transcoder %q", c.Transcoder)
	}
	if c.Interval <= 0 || math.IsNaN(c.Interval) || math.IsInf(c.Interval, 0) {
		return fmt.Errorf("interval must be positive, got %g", c.Interval)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

func (c Config) NewTranscoder() waveform.Transcoder {
	if c.Transcoder == TranscoderNative {
		return transcode.Native{}
	}
	ff := transcode.NewFFmpeg(c.FFmpegBin)
	ff.Timeout = c.DecodeTimeout
	return ff
}

func (c Config) Estimator() waveform.LoudnessEstimator {
	if c.Method == MethodHeuristic {
		return waveform.HeuristicEstimator{}
	}
	return &waveform.LUFSEstimator{Transcoder: c.NewTranscoder()}
}

func (c Config) Analyzer() *waveform.Analyzer {
	return waveform.NewAnalyzer(c.Estimator(), c.Interval)
}
