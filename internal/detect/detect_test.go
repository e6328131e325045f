package detect

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFile_CMSJSON(t *testing.T) {
	path := writeFile(t, "hospital.json",
		`{"hospital_name":"X","standard_charge_information":[]}`)
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatCMSJSON {
		t.Fatalf("format = %q, want %q", format, FormatCMSJSON)
	}
}

func TestFile_WideCSV(t *testing.T) {
	path := writeFile(t, "charges.csv",
		"description,code|1,standard_charge|Aetna|Commercial|negotiated_dollar\nknee,27447,100\n")
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatWideCSV {
		t.Fatalf("format = %q, want %q", format, FormatWideCSV)
	}
}

// Piped charge columns plus a payer_name column is the CMS v3 flat layout,
// not the wide one.
func TestFile_FlatCSVWithPipedColumns(t *testing.T) {
	path := writeFile(t, "charges.csv",
		"description,code|1,payer_name,standard_charge|negotiated_dollar\nknee,27447,Aetna,100\n")
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatFlatCSV {
		t.Fatalf("format = %q, want %q", format, FormatFlatCSV)
	}
}

func TestFile_FlatCSVByAliases(t *testing.T) {
	path := writeFile(t, "export.csv",
		"hospital_name,payer_name,code,description,negotiated_rate\nX,Aetna,27447,knee,100\n")
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatFlatCSV {
		t.Fatalf("format = %q, want %q", format, FormatFlatCSV)
	}
}

// Metadata rows before the real header must not defeat detection.
func TestFile_HeaderAfterMetadataRows(t *testing.T) {
	path := writeFile(t, "charges.csv",
		"General Hospital,,\nlast updated 2025-01-01,,\ndescription,code|1,standard_charge|Aetna|Commercial|negotiated_dollar\n")
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatWideCSV {
		t.Fatalf("format = %q, want %q", format, FormatWideCSV)
	}
}

func TestFile_ZIPBySignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("member.csv")
	w.Write([]byte("code|1,description\n"))
	zw.Close()
	f.Close()

	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatCranewareZIP {
		t.Fatalf("format = %q, want %q", format, FormatCranewareZIP)
	}
}

// Excel exports often lead with a UTF-8 byte order mark; it must not hide
// the first header cell from column matching.
func TestFile_ByteOrderMarkStripped(t *testing.T) {
	path := writeFile(t, "charges.csv",
		"\uFEFFdescription,code|1,standard_charge|Aetna|Commercial|negotiated_dollar\nknee,27447,100\n")
	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format != FormatWideCSV {
		t.Fatalf("format = %q, want %q", format, FormatWideCSV)
	}
}

func TestFile_Unrecognized(t *testing.T) {
	path := writeFile(t, "junk.csv", "a,b\n1,2\n")
	_, err := File(path)
	if !errors.Is(err, ErrFormatUnrecognized) {
		t.Fatalf("err = %v, want ErrFormatUnrecognized", err)
	}

	path = writeFile(t, "other.json", `{"unrelated":true}`)
	_, err = File(path)
	if !errors.Is(err, ErrFormatUnrecognized) {
		t.Fatalf("err = %v, want ErrFormatUnrecognized", err)
	}
}
