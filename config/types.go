package config

import (
	"fmt"
	"strings"
)

type BackendKind string // Implements envconfig.Decoder

const (
	BackendNone   BackendKind = "none"
	BackendOnnx   BackendKind = "onnx"
	BackendOpenAI BackendKind = "openai"
)

func (k *BackendKind) Decode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		fallthrough
	case "none":
		*k = BackendNone
		return nil
	case "onnx":
		*k = BackendOnnx
		return nil
	case "openai":
		*k = BackendOpenAI
		return nil
	}

	return fmt.Errorf("unsupported classifier backend '%s'", value)
}
