package speech

import "time"

// TTSResponse is synthesized audio returned by a synthesizer.
type TTSResponse struct {
	Audio       []byte    `json:"-"`
	ContentType string    `json:"contentType"`
	RequestID   string    `json:"requestId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clip is audio ready for playback within a session.
type Clip struct {
	SessionID   string `json:"sessionId"`
	Text        string `json:"text"`
	Audio       []byte `json:"audio"`
	ContentType string `json:"contentType"`
}
