// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// KeyGenerator generates cache keys from arbitrary inputs.
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a new key generator.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{
		prefix: "planner",
	}
}

// Generate hashes the inputs into a stable cache key.
func (kg *KeyGenerator) Generate(inputs ...string) string {
	h := blake3.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		// Separator so ("ab","c") and ("a","bc") hash differently
		h.Write([]byte{0})
	}
	return kg.prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// ForContent generates a key for a file's content, so edits invalidate
// stale estimates automatically.
func (kg *KeyGenerator) ForContent(path, content string) string {
	return kg.Generate("content", path, content)
}
