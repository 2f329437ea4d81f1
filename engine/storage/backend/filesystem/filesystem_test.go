package profilestoragefilesystem

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	. "github.com/emberwild/emberwild/engine/storage/storage_common"
)

type testRecord struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Coins int     `json:"coins"`
	X     float64 `json:"x"`
}

func TestFileProfileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.json")
	es, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var rec testRecord
	assert.Equal(t, ErrNotFound, es.Read("a", &rec))

	if err := es.Write("a", testRecord{ID: "a", Name: "Ash", Coins: 3, X: 1.5}); err != nil {
		t.Fatal(err)
	}
	if err := es.Write("b", testRecord{ID: "b", Name: "Birch"}); err != nil {
		t.Fatal(err)
	}
	if err := es.Read("a", &rec); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, testRecord{ID: "a", Name: "Ash", Coins: 3, X: 1.5}, rec)

	ids, _ := es.List()
	assert.Equal(t, []string{"a", "b"}, ids)

	// the file is a single object keyed by id
	content, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	assert.T(t, strings.HasPrefix(strings.TrimSpace(string(content)), "{"), "file should be a json object")
	assert.T(t, strings.Contains(string(content), `"a"`), "file should be keyed by id")

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var again testRecord
	if err := reopened.Read("b", &again); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Birch", again.Name)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	ioutil.WriteFile(path, []byte("not json"), 0644)
	_, err := OpenFile(path)
	assert.T(t, err != nil, "corrupt file should fail to open")
}
