package services

import (
	"sort"
	"strings"

	"github.com/championsarena/arena-server/models"
)

// Чистые проекции над уже загруженным каталогом. Детерминированы,
// безопасны на записях с отсутствующими полями.

// HistoryFor возвращает турниры, в списке участников которых есть userID.
func HistoryFor(userID int, tournaments []models.Tournament) []models.Tournament {
	history := make([]models.Tournament, 0)
	for _, t := range tournaments {
		for _, id := range t.Participants {
			if id == userID {
				history = append(history, t)
				break
			}
		}
	}
	return history
}

// HistoryByIDs фильтрует каталог по списку ID из истории пользователя.
// Висячие ссылки на удалённые турниры молча отбрасываются.
func HistoryByIDs(ids []int, tournaments []models.Tournament) []models.Tournament {
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	history := make([]models.Tournament, 0)
	for _, t := range tournaments {
		if wanted[t.ID] {
			history = append(history, t)
		}
	}
	return history
}

// MatchesSearch — регистронезависимый поиск по названию игры.
// Пустой запрос совпадает со всем каталогом.
func MatchesSearch(t models.Tournament, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.GameTitle), strings.ToLower(query))
}

// FilterBySearch применяет MatchesSearch ко всему каталогу.
func FilterBySearch(tournaments []models.Tournament, query string) []models.Tournament {
	filtered := make([]models.Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if MatchesSearch(t, query) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// SortByDate упорядочивает турниры по возрастанию даты (ближайшие первыми).
func SortByDate(tournaments []models.Tournament) {
	sort.SliceStable(tournaments, func(i, j int) bool {
		return tournaments[i].Date.Before(tournaments[j].Date)
	})
}
