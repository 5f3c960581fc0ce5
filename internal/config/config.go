// Copyright (c) Choko (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type Chat struct {
	// Model is the default chat model for new conversations.
	Model string `koanf:"model"`

	// HistoryTurns bounds how many prior turns are replayed to the chat
	// backend on each streaming call.
	HistoryTurns int `koanf:"historyturns"`
}

type Authorization struct {
	// EmailsCSV is a comma-separated list of emails authorized to use the
	// service, in addition to curioswitch.org accounts.
	EmailsCSV string `koanf:"emailscsv"`
}

type Config struct {
	config.Common

	// Chat is the configuration for chat generation.
	Chat Chat `koanf:"chat"`

	// Authorization is the configuration for access control.
	Authorization Authorization `koanf:"authorization"`
}
