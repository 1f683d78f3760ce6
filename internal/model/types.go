package model

// ChatRequest — тело POST /api/chat. Отсутствующий prompt равен "".
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse — имя поля "respuesta" сохраняется для совместимости с фронтендом.
type ChatResponse struct {
	Respuesta string `json:"respuesta"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status           string `json:"status"`
	InventoryEntries int    `json:"inventory_entries"`
	Model            string `json:"model"`
}
