package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"unicode/utf8"

	"animagen-backend/internal/config"
	"animagen-backend/internal/utils"
	"animagen-backend/pkg/logger"

	"github.com/abadojack/whatlanggo"
)

// ttsChunkLimit 单次请求的文本长度上限（按 rune 计），
// 接口对过长的 q 参数直接拒绝
const ttsChunkLimit = 200

// Synthesizer 把旁白脚本合成为 mp3 音频
type Synthesizer struct {
	endpoint    string
	defaultLang string
	client      *http.Client
}

func NewSynthesizer() *Synthesizer {
	cfg := config.Get()
	return &Synthesizer{
		endpoint:    cfg.TTS.Endpoint,
		defaultLang: cfg.TTS.DefaultLanguage,
		client:      utils.NewHTTPClient(cfg.TTS.Timeout),
	}
}

// Synthesize 合成旁白音频写入 destPath。
// 文本按词边界切块逐次请求，mp3 帧流可以直接级联。
func (s *Synthesizer) Synthesize(ctx context.Context, text, destPath string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("narration text is empty")
	}

	lang := s.detectLanguage(text)
	chunks := splitIntoChunks(text, ttsChunkLimit)
	logger.Infof("合成旁白: lang=%s chunks=%d", lang, len(chunks))

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %v", err)
	}
	defer out.Close()

	for i, chunk := range chunks {
		if err := s.fetchChunk(ctx, chunk, lang, out); err != nil {
			return fmt.Errorf("tts chunk %d/%d failed: %v", i+1, len(chunks), err)
		}
	}
	return nil
}

func (s *Synthesizer) detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if code := info.Lang.Iso6391(); code != "" && info.IsReliable() {
		return code
	}
	return s.defaultLang
}

func (s *Synthesizer) fetchChunk(ctx context.Context, chunk, lang string, out io.Writer) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", chunk)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts endpoint returned status %d", resp.StatusCode)
	}

	_, err = io.Copy(out, resp.Body)
	return err
}

// splitIntoChunks 按词边界切分文本，每块不超过 limit 个 rune。
// 单个超长词独占一块。
func splitIntoChunks(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
