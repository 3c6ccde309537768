//go:build windows

package main

import "os"

var refreshSignals []os.Signal
