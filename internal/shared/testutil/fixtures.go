package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// LTspiceNetlist is a small RC filter with Monte-Carlo tolerance groups.
const LTspiceNetlist = `* rc_filter.net
.param tolR=0.01 tcR=50e-6 tolC=0.1
R1 in out {mc(10k,tolR)}
R2 out 0 4k7
C1 out 0 {mc(100n,tolC)}
V1 in 0 AC 1
.ac dec 10 1 1meg
.end
`

// SIMetrixNetlist uses gauss() deviation annotations.
const SIMetrixNetlist = `* SIMetrix netlist
.PARAM tolR=0.01
R1 in out {10k*(1+gauss(tolR*3))}
C1 out 0 {100n*(1+gauss(0.05))}
`

// DelimitedBoM is a semicolon separated bill of materials with a title line.
const DelimitedBoM = `Board rev B
Reference;Value;Tolerance;Package
R1, R2;10k;1;
C1;100n;10;C1206
U1;DNP;;
`

// GenericCSV is a headerless ref,value,tolerance% file.
const GenericCSV = `R1,1000,1
C1,1e-7
`

// WriteFixture writes content to name inside a fresh temp dir and returns the path.
func WriteFixture(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
