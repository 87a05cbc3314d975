// Package embedded содержит встроенные ресурсы приложения.
package embedded

import (
	_ "embed"
)

// IconIdle - иконка в состоянии ожидания (серая).
//
//go:embed icon_idle.png
var IconIdle []byte

// IconBusy - иконка во время перевода (синяя).
//
//go:embed icon_busy.png
var IconBusy []byte

// IconError - иконка после ошибки (красная).
//
//go:embed icon_error.png
var IconError []byte
