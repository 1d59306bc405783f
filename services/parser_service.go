package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/yeremiapane/jobconnect-app/utils"
)

// ParserConfig holds resume parser service configuration
type ParserConfig struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
}

// ParsedResume -> respons dari parsing service
type ParsedResume struct {
	Summary string   `json:"summary"`
	Skills  []string `json:"skills"`
}

// ParserService -> client tipis ke layanan parsing resume eksternal.
// Request/response sederhana dengan retry terbatas; core tidak tahu apa-apa
// soal isi parsingnya.
type ParserService struct {
	config     *ParserConfig
	httpClient *http.Client
}

var (
	parserService *ParserService
	parserOnce    sync.Once
)

// GetParserService returns singleton instance of ParserService
func GetParserService() *ParserService {
	parserOnce.Do(func() {
		baseURL := os.Getenv("PARSER_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:9090"
		}

		parserService = &ParserService{
			config: &ParserConfig{
				BaseURL:    baseURL,
				APIKey:     os.Getenv("PARSER_API_KEY"),
				MaxRetries: 3,
			},
			httpClient: &http.Client{
				Timeout: 30 * time.Second,
			},
		}
	})
	return parserService
}

// ParseResume mengirim file resume ke parsing service dan mengembalikan
// hasil parsing. Retry maksimal MaxRetries kali dengan backoff sederhana.
func (ps *ParserService) ParseResume(filename string, content []byte) (*ParsedResume, error) {
	var lastErr error
	for attempt := 1; attempt <= ps.config.MaxRetries; attempt++ {
		result, err := ps.doParse(filename, content)
		if err == nil {
			return result, nil
		}
		lastErr = err
		utils.ErrorLogger.Printf("parser: attempt %d/%d failed: %v", attempt, ps.config.MaxRetries, err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("resume parsing failed after %d attempts: %w", ps.config.MaxRetries, lastErr)
}

func (ps *ParserService) doParse(filename string, content []byte) (*ParsedResume, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, ps.config.BaseURL+"/v1/parse", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if ps.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+ps.config.APIKey)
	}

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed ParsedResume
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
