package main

import (
	_ "embed"
)

//go:embed assets/header.txt
var asciiHeader string
