package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/a.csv"))
	assert.True(t, IsURL("HTTPS://example.com/a.csv"))
	assert.False(t, IsURL("data/http.csv"))
	assert.False(t, IsURL("s3-bucket/key.csv"))
}

func TestFileType(t *testing.T) {
	tests := map[string]string{
		"data/week_1.csv":                      TypeCSV,
		"data/WEEK_1.CSV":                      TypeCSV,
		"data/week_1":                          TypeCSV,
		"notes.txt":                            TypeCSV,
		"prices.dat":                           TypeCSV,
		"stocks.2020.01":                       TypeCSV,
		"dump.json":                            TypeCSV,
		"reports/2020.xlsx":                    TypeExcel,
		"reports/2020.XLSX":                    TypeExcel,
		"https://example.com/files/x.xlsx?v=2": TypeExcel,
		"https://example.com/files/stocks.csv": TypeCSV,
		"https://example.com/files/x.xlsx.bak": TypeCSV,
	}
	for in, want := range tests {
		assert.Equal(t, want, FileType(in), in)
	}
}
