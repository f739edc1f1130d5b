package game

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/kstonekuan/among-humans/internal/models"
	"github.com/kstonekuan/among-humans/internal/store"
)

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// GetUniqueRoomCode generates a room code not already present in the store.
// Collisions are vanishingly rare but still retried, not assumed away.
func GetUniqueRoomCode(rooms *store.RoomStore) string {
	for {
		code := GenerateRoomCode()
		if !rooms.Exists(code) {
			return code
		}
	}
}

var nameAdjectives = []string{
	"Amber", "Bold", "Brisk", "Calm", "Clever", "Cosmic", "Crimson", "Daring",
	"Dusty", "Eager", "Fuzzy", "Gentle", "Golden", "Happy", "Jolly", "Lively",
	"Lunar", "Mellow", "Nimble", "Plucky", "Quiet", "Rapid", "Rustic", "Silver",
	"Sly", "Snappy", "Sunny", "Swift", "Vivid", "Witty",
}

var nameAnimals = []string{
	"Badger", "Beaver", "Bison", "Falcon", "Ferret", "Gecko", "Heron", "Ibex",
	"Jackal", "Koala", "Lemur", "Lynx", "Macaw", "Marmot", "Newt", "Ocelot",
	"Otter", "Owl", "Panda", "Puffin", "Quokka", "Raven", "Seal", "Shrew",
	"Sloth", "Stoat", "Tapir", "Toucan", "Walrus", "Wombat",
}

// AllocateDisplayName picks a display name unique within the room.
// Names are always server-assigned; a requested name is only meaningful as a
// reconnection claim, never as an identity grant.
// Must be called with the room lock held.
func AllocateDisplayName(room *models.Room) string {
	taken := make(map[string]bool, len(room.Players))
	for _, p := range room.Players {
		taken[p.DisplayName] = true
	}

	for i := 0; i < 30; i++ {
		name := nameAdjectives[rand.Intn(len(nameAdjectives))] + nameAnimals[rand.Intn(len(nameAnimals))]
		if !taken[name] {
			return name
		}
	}

	// Crowded room. Suffix until free.
	base := nameAdjectives[rand.Intn(len(nameAdjectives))] + nameAnimals[rand.Intn(len(nameAnimals))]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if !taken[name] {
			return name
		}
	}
}
