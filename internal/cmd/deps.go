package cmd

import (
	"github.com/fsnotify/fsnotify"

	"github.com/salmonumbrella/harp-cli/internal/schema"
)

var (
	readSchemaSetFunc = schema.ReadSet
	newWatcherFunc    = fsnotify.NewWatcher
)
