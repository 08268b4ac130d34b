package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jaysj0226/justspeak-backend/internal/providers/stt"
	"github.com/jaysj0226/justspeak-backend/internal/scenario"
	"github.com/jaysj0226/justspeak-backend/internal/services"
	"github.com/jaysj0226/justspeak-backend/internal/utils"
)

const SpeechStream = "speech:jobs"

// SpeechJob is one recorded utterance waiting for recognition.
type SpeechJob struct {
	UserID      string
	SessionID   string
	ScenarioID  string
	AudioBase64 string
	Language    string
}

// EnqueueSpeechJob puts a job on the recognition stream.
func EnqueueSpeechJob(ctx context.Context, rdb *redis.Client, job SpeechJob) error {
	if job.UserID == "" || job.SessionID == "" || job.AudioBase64 == "" {
		return errors.New("speech job requires user_id, session_id, audio")
	}
	return rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: SpeechStream,
		Values: map[string]any{
			"user_id":      job.UserID,
			"session_id":   job.SessionID,
			"scenario_id":  job.ScenarioID,
			"audio_base64": job.AudioBase64,
			"language":     job.Language,
		},
	}).Err()
}

// SpeechWorkerPool consumes recorded utterances, transcribes them, and
// feeds the text into the owning session. Recognition failures surface as
// an error event on the session channel, never as a lesson turn.
type SpeechWorkerPool struct {
	Redis      *redis.Client
	Sessions   services.SessionService
	STT        stt.Provider
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *SpeechWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil || p.STT == nil {
		return errors.New("SpeechWorkerPool missing dependency: Redis/Sessions/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = SpeechStream
	}
	if p.Group == "" {
		p.Group = "speech-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *SpeechWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func normalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", "en":
		return "en-US"
	default:
		return v
	}
}

func (p *SpeechWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	userID := getStr("user_id")
	sessionID := getStr("session_id")
	if userID == "" || sessionID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
	})

	raw := getStr("audio_base64")
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		return
	}

	opts := stt.Options{Language: normalizeLanguage(getStr("language"))}
	if sid := getStr("scenario_id"); sid != "" {
		opts.Hints = []string{scenario.Lookup(sid).Title}
	}

	sttCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	result, err := p.STT.Transcribe(sttCtx, audio, opts)
	cancel()
	if err != nil {
		if errors.Is(err, stt.ErrNoSpeech) {
			log.Debug("no speech in audio chunk")
		} else {
			log.WithError(err).Warn("transcription failed")
		}
		return
	}

	if err := p.Sessions.PostUtterance(userID, sessionID, result.Text); err != nil {
		if utils.IsCode(err, utils.CodeConflict) {
			log.Info("utterance dropped, turn already in progress")
			return
		}
		log.WithError(err).Warn("failed to post utterance")
	}
}
