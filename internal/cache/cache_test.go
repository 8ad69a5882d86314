package cache

import (
	"errors"
	"io"
	"testing"
	"time"

	"forge/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
}

func TestDB_PutGetRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	key := Key("esm", true, [][]byte{[]byte("console.log(1)")})
	entry := Entry{FileName: "main.js", Code: []byte("console.log(1)"), Map: []byte(`{"version":3}`)}

	if err := db.Put(key, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != entry.FileName || string(got.Code) != string(entry.Code) {
		t.Errorf("Get() = %+v, want %+v", got, entry)
	}
}

func TestDB_GetMiss(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, err = db.Get("nonexistent")
	if !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v, want ErrMiss", err)
	}
}

func TestDB_ModuleMTime(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	now := time.Now().Truncate(time.Second)
	if err := db.RecordModuleMTime("main.js", now); err != nil {
		t.Fatalf("RecordModuleMTime: %v", err)
	}

	got, err := db.ModuleMTime("main.js")
	if err != nil {
		t.Fatalf("ModuleMTime: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("ModuleMTime() = %v, want %v", got, now)
	}
}

func TestDB_Clear(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	key := Key("cjs", false, [][]byte{[]byte("x")})
	if err := db.Put(key, Entry{FileName: "a.js", Code: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after Clear() error = %v, want ErrMiss", err)
	}
}

func TestKey_DeterministicAndSensitiveToInputs(t *testing.T) {
	k1 := Key("esm", true, [][]byte{[]byte("a")})
	k2 := Key("esm", true, [][]byte{[]byte("a")})
	k3 := Key("cjs", true, [][]byte{[]byte("a")})

	if k1 != k2 {
		t.Error("Key() not deterministic")
	}
	if k1 == k3 {
		t.Error("Key() should differ across dialects")
	}
}

func TestEncodeDecodeEntry_RoundTrip(t *testing.T) {
	e := Entry{FileName: "chunk-ab12.js", Code: []byte("export const x = 1;"), Map: []byte(`{"version":3}`)}
	raw := encodeEntry(e)
	got, err := decodeEntry(raw)
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if got.FileName != e.FileName || string(got.Code) != string(e.Code) || string(got.Map) != string(e.Map) {
		t.Errorf("decodeEntry() = %+v, want %+v", got, e)
	}
}
