package domain

type User struct {
	Id           string
	Username     string
	DisplayName  string
	PasswordHash string
}

// Category names one of the ranking tracks an account accumulates score on.
type Category string

const (
	// CategoryTotal is the aggregate of every game mode.
	CategoryTotal Category = "total"
	// CategoryPersonal only counts single-player sessions.
	CategoryPersonal Category = "personal"
	// CategoryDuo only counts multiplayer rooms.
	CategoryDuo Category = "duo"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryTotal, CategoryPersonal, CategoryDuo:
		return c, nil
	default:
		return "", ErrUnknownCategory
	}
}

// ScoreDelta is what one finished game adds to an account. Aggregate is
// always set; exactly one of Personal or Duo normally mirrors it.
type ScoreDelta struct {
	Aggregate int
	Personal  int
	Duo       int
}

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Profile struct {
	Id          string           `json:"id"`
	Username    string           `json:"username"`
	DisplayName string           `json:"displayName"`
	Aggregate   int              `json:"aggregate"`
	Personal    int              `json:"personal"`
	Duo         int              `json:"duo"`
	Ranks       map[Category]int `json:"ranks"`
}
