// Package onnx serves the scaler and classifier from ONNX exports through
// onnxruntime. Sessions are not safe for concurrent Run calls, so each model
// serializes access with a mutex.
package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// Acquire initializes the shared onnxruntime environment on first use.
// libraryPath may be empty to use the platform default. Every successful
// Acquire must be paired with Release.
func Acquire(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

// Release tears the environment down when the last user is done.
func Release() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs > 0 {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroy onnxruntime: %w", err)
	}
	return nil
}
