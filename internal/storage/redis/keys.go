package redis

import (
	"strconv"

	"github.com/Shaydu/cache-raiders-sub000/internal/model"
)

// Key prefixes for all stored entities
const (
	keyPrefix = "cr:"

	objectsByCreation = keyPrefix + "objects"   // zset: object id scored by creation time
	findLedger        = keyPrefix + "finds"     // zset: find id scored by id (insertion order)
	findSequence      = keyPrefix + "find_seq"  // counter for monotonic find ids
	playerIndex       = keyPrefix + "players"   // set of device uuids
	lastLocationIndex = keyPrefix + "last_locs" // set of device uuids
)

func objectKey(id model.ObjectID) string {
	return keyPrefix + "object:" + string(id)
}

func objectFindsKey(id model.ObjectID) string {
	return keyPrefix + "object_finds:" + string(id)
}

func findKey(id int64) string {
	return keyPrefix + "find:" + strconv.FormatInt(id, 10)
}

func playerKey(deviceUUID model.DeviceUUID) string {
	return keyPrefix + "player:" + string(deviceUUID)
}

func lastLocationKey(deviceUUID model.DeviceUUID) string {
	return keyPrefix + "last_loc:" + string(deviceUUID)
}
