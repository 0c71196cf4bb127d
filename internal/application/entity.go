package application

import (
	"regexp"
	"strings"
)

const manufacturer = "OpenAI"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// EntityID turns a display name into the host's unique id form:
// "OpenAI Text-to-Speech Service" -> "openai_text_to_speech_service".
func EntityID(name string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(name, "_"))
}

type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
}

// EntityInfo is what the host needs to register an entity.
type EntityInfo struct {
	Name               string     `json:"name"`
	UniqueID           string     `json:"unique_id"`
	Device             DeviceInfo `json:"device_info"`
	DefaultLanguage    string     `json:"default_language"`
	SupportedLanguages []string   `json:"supported_languages"`
	SupportedFormats   []string   `json:"supported_formats,omitempty"`
	SupportedCodecs    []string   `json:"supported_codecs,omitempty"`
	SupportedBitRates  []int      `json:"supported_bit_rates,omitempty"`
	SupportedRates     []int      `json:"supported_sample_rates,omitempty"`
	SupportedChannels  []int      `json:"supported_channels,omitempty"`
}
