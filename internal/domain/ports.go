package domain

// EventPublisher публикует доменные события наружу (брокер сообщений).
// Публикация выполняется best-effort после коммита: её отказ не должен
// откатывать уже зафиксированную запись и не возвращается вызывающему HTTP-клиенту.
type EventPublisher interface {
	// PublishEvent сериализует событие и отправляет его в указанный topic с ключом key.
	PublishEvent(topic string, key string, event interface{}) error
}
