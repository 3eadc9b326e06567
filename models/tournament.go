package models

import "time"

// Tournament представляет турнир каталога.
//
// UsedSpots и CreatedAt управляются только сервером: UsedSpots меняется
// исключительно через регистрацию участника, CreatedAt выставляется БД.
// Version — токен оптимистичной блокировки для условного обновления
// счётчика занятых мест.
type Tournament struct {
	ID        int       `json:"id" db:"id"`
	GameTitle string    `json:"game_title" db:"game_title"`
	Date      time.Time `json:"date" db:"date"`
	Location  string    `json:"location" db:"location"`
	Spots     int       `json:"spots" db:"spots"`
	UsedSpots int       `json:"used_spots" db:"used_spots"`
	PrizePool string    `json:"prize_pool" db:"prize_pool"`
	Details   *string   `json:"details,omitempty" db:"details"`
	BannerKey *string   `json:"-" db:"banner_key"`
	BannerURL *string   `json:"banner_url,omitempty" db:"-"`
	Version   int       `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Участники не мапятся напрямую, подгружаются отдельным запросом.
	Participants []int `json:"participants,omitempty" db:"-"`
}

// AvailableSpots возвращает количество свободных мест, не опускаясь ниже нуля
// на записях с повреждёнными счётчиками.
func (t Tournament) AvailableSpots() int {
	if t.UsedSpots >= t.Spots {
		return 0
	}
	return t.Spots - t.UsedSpots
}
