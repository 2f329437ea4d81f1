package profilestoragemongodb

import (
	"io"
	"time"

	"github.com/emberwild/emberwild/engine/gwlog"
	. "github.com/emberwild/emberwild/engine/storage/storage_common"
	"github.com/pkg/errors"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	_DEFAULT_DB_NAME    = "emberwild"
	_DEFAULT_COLLECTION = "profiles"
	_DIAL_TIMEOUT       = time.Second * 5
)

type mongoDBProfileStorage struct {
	session *mgo.Session
	col     *mgo.Collection
}

// OpenMongoDB opens a mongodb collection as profile storage, one document per profile with _id = profile id
func OpenMongoDB(url string, dbname string, collection string) (ProfileStorage, error) {
	gwlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.DialWithTimeout(url, _DIAL_TIMEOUT)
	if err != nil {
		return nil, errors.Wrap(err, "mongodb dial failed")
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		dbname = _DEFAULT_DB_NAME
	}
	if collection == "" {
		collection = _DEFAULT_COLLECTION
	}
	if err := session.Ping(); err != nil {
		session.Close()
		return nil, errors.Wrap(err, "mongodb ping failed")
	}
	return &mongoDBProfileStorage{
		session: session,
		col:     session.DB(dbname).C(collection),
	}, nil
}

func (es *mongoDBProfileStorage) Name() string {
	return "mongodb"
}

func (es *mongoDBProfileStorage) Write(id string, data interface{}) error {
	_, err := es.col.UpsertId(id, data)
	return err
}

func (es *mongoDBProfileStorage) Read(id string, out interface{}) error {
	err := es.col.FindId(id).One(out)
	if err == mgo.ErrNotFound {
		return ErrNotFound
	}
	return err
}

func (es *mongoDBProfileStorage) List() ([]string, error) {
	var docs []bson.M
	err := es.col.Find(nil).Select(bson.M{"_id": 1}).All(&docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc["_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (es *mongoDBProfileStorage) Close() {
	es.session.Close()
}

func (es *mongoDBProfileStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
