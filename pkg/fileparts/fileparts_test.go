package fileparts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		path string
		want Parts
	}{
		{path: "/data/raw/subject01.csv", want: Parts{Dir: "/data/raw", Base: "subject01", Ext: ".csv"}},
		{path: "subject01.csv", want: Parts{Dir: ".", Base: "subject01", Ext: ".csv"}},
		{path: "/data/archive.tar.gz", want: Parts{Dir: "/data", Base: "archive.tar", Ext: ".gz"}},
		{path: "/data/README", want: Parts{Dir: "/data", Base: "README"}},
		{path: "/data/.csv", want: Parts{Dir: "/data", Ext: ".csv"}},
		{path: "/data/raw/", want: Parts{Dir: "/data/raw"}},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Split(tc.path))
		})
	}
}

func TestJoin_InvertsSplit(t *testing.T) {
	for _, path := range []string{"/data/raw/subject01.csv", "/data/archive.tar.gz", "/data/README", "rel/x.csv"} {
		assert.Equal(t, filepath.Clean(path), Join(Split(path)), path)
	}
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "/data/subject01.bin", WithExt("/data/subject01.csv", ".bin"))
	assert.Equal(t, "/data/subject01.bin", WithExt("/data/subject01.csv", "bin"))
	assert.Equal(t, "/data/README.bin", WithExt("/data/README", ".bin"))
	assert.Equal(t, "/data/subject01", WithExt("/data/subject01.csv", ""))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/data/subject01.bin", OutputPath("/data/subject01.csv", "", ".bin"))
	assert.Equal(t, "/out/subject01.bin", OutputPath("/data/subject01.csv", "/out", ".bin"))
	assert.Equal(t, "/out/subject01.bin", OutputPath("/data/subject01.csv", "/out/", "bin"))
}

func TestHidden(t *testing.T) {
	assert.True(t, Hidden("/data/.DS_Store"))
	assert.True(t, Hidden(".csv"))
	assert.False(t, Hidden("/data/.hidden/subject.csv"))
	assert.False(t, Hidden("subject.csv"))
}

func TestHasExt(t *testing.T) {
	assert.True(t, HasExt("a.csv", ".csv"))
	assert.True(t, HasExt("a.CSV", "csv"))
	assert.False(t, HasExt("a.csv.bak", ".csv"))
	assert.False(t, HasExt("csv", ".csv"))
}
