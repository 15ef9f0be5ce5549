package domain

// CustomerSummary — денормализованная сводка заказов клиента, существующий внешний контракт.
// Email берётся из последнего совпавшего заказа, списки игр — сквозные по всем позициям
// всех заказов, genre_string — жанры последней встреченной позиции.
type CustomerSummary struct {
	CustomerID    string   `json:"customer_id"`
	CustomerEmail string   `json:"customer_email"`
	GameIDs       []string `json:"game_list"`
	GameNames     []string `json:"game_name_list"`
	GenreString   string   `json:"genre_string"`
}

// SummarizeCustomer сворачивает заказы клиента в одну запись CustomerSummary.
func SummarizeCustomer(customerID string, orders []Order) CustomerSummary {
	summary := CustomerSummary{
		CustomerID: customerID,
		GameIDs:    make([]string, 0),
		GameNames:  make([]string, 0),
	}

	for _, order := range orders {
		for _, item := range order.Items {
			summary.GameIDs = append(summary.GameIDs, item.GameID)
			summary.GameNames = append(summary.GameNames, item.GameName)
			summary.GenreString = item.GenreString
		}
		summary.CustomerEmail = order.CustomerEmail
	}

	return summary
}
