package main

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-data", "roster.tsv", "-background", "bg.png", "-columns", "Division, Club,", "-date", "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Division", "Club"}, opts.columns)
	assert.Equal(t, "certificates.pdf", opts.outPath)
	assert.Equal(t, "default", opts.preset)

	_, err = parseFlags([]string{"-background", "bg.png"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-data", "roster.tsv"})
	assert.Error(t, err)
}

func TestRunWritesPDF(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "roster.tsv")
	require.NoError(t, os.WriteFile(dataPath, []byte("First Name\tLast Name\tDivision\nAnn\tLee\tRecurve\nBo\tNg\tCompound\n"), 0644))

	var bg bytes.Buffer
	require.NoError(t, imaging.Encode(&bg, imaging.New(1000, 700, color.NRGBA{R: 255, G: 250, B: 235, A: 255}), imaging.JPEG))
	bgPath := filepath.Join(dir, "bg.jpg")
	require.NoError(t, os.WriteFile(bgPath, bg.Bytes(), 0644))

	outPath := filepath.Join(dir, "out.pdf")
	err := run(context.Background(), options{
		dataPath:       dataPath,
		backgroundPath: bgPath,
		outPath:        outPath,
		preset:         "default",
		columns:        []string{"Division"},
		date:           "2024-06-01",
		rowIndex:       "memory",
	})
	require.NoError(t, err)

	pdf, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRunLeavesNoFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "roster.tsv")
	require.NoError(t, os.WriteFile(dataPath, []byte("Name\nAnn\n"), 0644))
	bgPath := filepath.Join(dir, "bg.png")
	require.NoError(t, os.WriteFile(bgPath, []byte("not an image"), 0644))

	outPath := filepath.Join(dir, "out.pdf")
	err := run(context.Background(), options{dataPath: dataPath, backgroundPath: bgPath, outPath: outPath})
	assert.Error(t, err)
	assert.NoFileExists(t, outPath)
}
