package profilestoragefilesystem

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/gwlog"
	. "github.com/emberwild/emberwild/engine/storage/storage_common"
	"github.com/pkg/errors"
)

// FileProfileStorage keeps every record in one JSON object keyed by id
//
// The whole object is rewritten through a temp file and a rename on each write
type FileProfileStorage struct {
	path    string
	records map[string]json.RawMessage
}

// OpenFile loads the profile file at path, creating its directory if needed
func OpenFile(path string) (*FileProfileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "create directory of %s", path)
	}

	es := &FileProfileStorage{
		path:    path,
		records: map[string]json.RawMessage{},
	}
	dataBytes, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return es, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(dataBytes) == 0 {
		return es, nil
	}
	if err := json.Unmarshal(dataBytes, &es.records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return es, nil
}

// Name returns the backend name
func (es *FileProfileStorage) Name() string {
	return "filesystem"
}

// Path returns the profile file path
func (es *FileProfileStorage) Path() string {
	return es.path
}

// Write stores the record and rewrites the file
func (es *FileProfileStorage) Write(id string, data interface{}) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("Saving %s to file %s: %s", id, es.path, string(dataBytes))
	}

	prev, existed := es.records[id]
	es.records[id] = dataBytes
	if err := es.flush(); err != nil {
		if existed {
			es.records[id] = prev
		} else {
			delete(es.records, id)
		}
		return err
	}
	return nil
}

func (es *FileProfileStorage) flush() error {
	fileBytes, err := json.MarshalIndent(es.records, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encode profile file")
	}
	tmp := es.path + ".tmp"
	if err := ioutil.WriteFile(tmp, fileBytes, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, es.path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

// Read decodes the record of id into out
func (es *FileProfileStorage) Read(id string, out interface{}) error {
	raw, ok := es.records[id]
	if !ok {
		return ErrNotFound
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "decode %s", id)
}

// List returns all ids in sorted order
func (es *FileProfileStorage) List() ([]string, error) {
	ids := make([]string, 0, len(es.records))
	for id := range es.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close does nothing since every write is already on disk
func (es *FileProfileStorage) Close() {
}

// IsEOF is always false for files
func (es *FileProfileStorage) IsEOF(err error) bool {
	return false
}
