package testutils

// Message payloads for channel tests.

type AttackPlayerMsg struct{ Value int }

type CreatePlayerMsg struct{ Value int }

type PlayerDeathMsg struct{ Value int }

type ItemDropMsg struct{ Value int }
