package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "agentdash"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanStateChange - канал для трансляции смены состояния агентов (state_change)
	RedisChanStateChange = RedisNamespace + ":agents:state-change"
)

// AgentStateChannel Канал подписки на события одного агента
func AgentStateChannel(agentID string) string {
	return RedisChanStateChange + ":" + agentID
}
