package bedtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"
)

// Voice presets for narration. Each maps to a speech-API voice with a
// speed tuned for a sleepy audience.
const (
	VoiceDad     = "fable"
	VoiceMom     = "shimmer"
	VoiceSister  = "nova"
	VoiceGrandad = "onyx"

	DefaultVoice = VoiceDad
)

var voiceSpeeds = map[string]float64{
	VoiceDad:     0.9,
	VoiceMom:     0.9,
	VoiceSister:  1.1,
	VoiceGrandad: 0.8,
}

// Narrator turns scene text into MP3 audio. Synthesized clips are kept in
// a caller-owned cache keyed by a fingerprint of the normalized text plus
// voice, so repeat listens of an unchanged scene cost nothing; eviction
// policy belongs to whoever built the cache.
type Narrator struct {
	client *openai.Client
	audio  *cache.Cache
}

// NewNarrator builds a Narrator. The cache may be nil to disable caching.
func NewNarrator(client *openai.Client, audio *cache.Cache) *Narrator {
	return &Narrator{client: client, audio: audio}
}

// Narrate synthesizes the scene as bedtime-paced speech. Unknown voices
// fall back to the default narrator.
func (n *Narrator) Narrate(ctx context.Context, sceneText, voice string) ([]byte, error) {
	speed, ok := voiceSpeeds[voice]
	if !ok {
		voice = DefaultVoice
		speed = voiceSpeeds[DefaultVoice]
	}

	clean := CleanForNarration(sceneText)
	key := audioFingerprint(clean, voice)

	if n.audio != nil {
		if hit, found := n.audio.Get(key); found {
			return hit.([]byte), nil
		}
	}

	resp, err := n.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Voice: openai.SpeechVoice(voice),
		Input: clean,
		Speed: speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech response: %w", err)
	}

	if n.audio != nil {
		n.audio.Set(key, audio, cache.DefaultExpiration)
	}
	return audio, nil
}

func audioFingerprint(cleanText, voice string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + cleanText))
	return hex.EncodeToString(sum[:])
}
