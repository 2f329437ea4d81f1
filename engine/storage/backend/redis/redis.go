package profilestorageredis

import (
	"encoding/json"
	"io"
	"strings"

	. "github.com/emberwild/emberwild/engine/storage/storage_common"
	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
)

const _DEFAULT_HASH_KEY = "emberwild:profiles"

type redisProfileStorage struct {
	c   redis.Conn
	key string
}

// OpenRedis opens a redis hash as profile storage, one JSON field per profile
func OpenRedis(url string, dbindex int, key string) (ProfileStorage, error) {
	var c redis.Conn
	var err error
	if strings.HasPrefix(url, "redis://") {
		c, err = redis.DialURL(url)
	} else {
		c, err = redis.Dial("tcp", url)
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis dail failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "redis select db failed")
	}
	if key == "" {
		key = _DEFAULT_HASH_KEY
	}
	return &redisProfileStorage{c: c, key: key}, nil
}

func (es *redisProfileStorage) Name() string {
	return "redis"
}

func (es *redisProfileStorage) List() ([]string, error) {
	return redis.Strings(es.c.Do("HKEYS", es.key))
}

func (es *redisProfileStorage) Write(id string, data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "encode %s", id)
	}
	_, err = es.c.Do("HSET", es.key, id, b)
	return err
}

func (es *redisProfileStorage) Read(id string, out interface{}) error {
	b, err := redis.Bytes(es.c.Do("HGET", es.key, id))
	if err == redis.ErrNil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(b, out), "decode %s", id)
}

func (es *redisProfileStorage) Close() {
	es.c.Close()
}

func (es *redisProfileStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
