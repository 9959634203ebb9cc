package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// readBarcodes returns one code per non-blank line, in file order. Codes are
// not validated here; invalid ones are reported by the pipeline.
func readBarcodes(r io.Reader) ([]string, error) {
	var codes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		codes = append(codes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func readBarcodesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open barcodes file: %w", err)
	}
	defer f.Close()

	codes, err := readBarcodes(f)
	if err != nil {
		return nil, fmt.Errorf("read barcodes file: %w", err)
	}
	return codes, nil
}
