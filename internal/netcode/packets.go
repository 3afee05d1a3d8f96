package netcode

// RoomError is the closed set of join/create outcomes reported back to a
// client, per spec.md section 4.4 point 3.
type RoomError uint8

const (
	RoomSuccess RoomError = iota
	RoomNotFound
	RoomFull
	RoomWrongPassword
	RoomAlreadyInRoom
	RoomPlayerBanned
	RoomUnknownError
)

// --- session / handshake -----------------------------------------------

// PlayerInfo announces a connecting client's chosen name.
type PlayerInfo struct {
	Seq  uint32
	Name string
}

func (p PlayerInfo) Encode() []byte {
	w := NewWriter(6 + len(p.Name))
	w.PutUint32(p.Seq)
	w.PutString(p.Name)
	return w.Bytes()
}

func DecodePlayerInfo(body []byte) (PlayerInfo, error) {
	r := NewReader(body)
	var p PlayerInfo
	var err error
	if p.Seq, err = r.Uint32(); err != nil {
		return p, err
	}
	p.Name, err = r.String()
	return p, err
}

// Ack acknowledges a reliable packet by sequence number.
type Ack struct {
	Seq uint32
}

func (a Ack) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(a.Seq)
	return w.Bytes()
}

func DecodeAck(body []byte) (Ack, error) {
	r := NewReader(body)
	seq, err := r.Uint32()
	return Ack{Seq: seq}, err
}

// Heartbeat is an empty, unreliable keepalive.
type Heartbeat struct{}

func (Heartbeat) Encode() []byte { return nil }

// Chat carries a free-form text message.
type Chat struct {
	PlayerID uint32
	Text     string
}

func (c Chat) Encode() []byte {
	w := NewWriter(6 + len(c.Text))
	w.PutUint32(c.PlayerID)
	w.PutString(c.Text)
	return w.Bytes()
}

func DecodeChat(body []byte) (Chat, error) {
	r := NewReader(body)
	var c Chat
	var err error
	if c.PlayerID, err = r.Uint32(); err != nil {
		return c, err
	}
	c.Text, err = r.String()
	return c, err
}

// RequestChallenge asks the server for a nonce to join a private room.
type RequestChallenge struct {
	RoomID uint32
}

func (r RequestChallenge) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(r.RoomID)
	return w.Bytes()
}

func DecodeRequestChallenge(body []byte) (RequestChallenge, error) {
	r := NewReader(body)
	id, err := r.Uint32()
	return RequestChallenge{RoomID: id}, err
}

// ChallengeResp returns the hex nonce and issue timestamp for a private
// room join. NonceHex is consumed with SHA256(nonce||password).
type ChallengeResp struct {
	NonceHex string
	Ts       uint64
}

func (c ChallengeResp) Encode() []byte {
	w := NewWriter(10 + len(c.NonceHex))
	w.PutString(c.NonceHex)
	w.PutUint64(c.Ts)
	return w.Bytes()
}

func DecodeChallengeResp(body []byte) (ChallengeResp, error) {
	r := NewReader(body)
	var c ChallengeResp
	var err error
	if c.NonceHex, err = r.String(); err != nil {
		return c, err
	}
	c.Ts, err = r.Uint64()
	return c, err
}

// --- room lifecycle ------------------------------------------------------

// CreateRoom requests a new room.
type CreateRoom struct {
	Name     string
	Private  bool
	Password string // plaintext for public creation path; hashed for private join
	Max      uint8
}

func (c CreateRoom) Encode() []byte {
	w := NewWriter(8 + len(c.Name) + len(c.Password))
	w.PutString(c.Name)
	w.PutBool(c.Private)
	w.PutString(c.Password)
	w.PutUint8(c.Max)
	return w.Bytes()
}

func DecodeCreateRoom(body []byte) (CreateRoom, error) {
	r := NewReader(body)
	var c CreateRoom
	var err error
	if c.Name, err = r.String(); err != nil {
		return c, err
	}
	if c.Private, err = r.Bool(); err != nil {
		return c, err
	}
	if c.Password, err = r.String(); err != nil {
		return c, err
	}
	c.Max, err = r.Uint8()
	return c, err
}

// CreateRoomResp reports the outcome of CreateRoom and the assigned ID.
type CreateRoomResp struct {
	Result RoomError
	RoomID uint32
}

func (c CreateRoomResp) Encode() []byte {
	w := NewWriter(5)
	w.PutUint8(uint8(c.Result))
	w.PutUint32(c.RoomID)
	return w.Bytes()
}

func DecodeCreateRoomResp(body []byte) (CreateRoomResp, error) {
	r := NewReader(body)
	var c CreateRoomResp
	res, err := r.Uint8()
	if err != nil {
		return c, err
	}
	c.Result = RoomError(res)
	c.RoomID, err = r.Uint32()
	return c, err
}

// JoinRoom requests to join an existing room, supplying a password (empty
// for public rooms, SHA256(nonce||password) hex for private ones).
type JoinRoom struct {
	RoomID   uint32
	Password string
}

func (j JoinRoom) Encode() []byte {
	w := NewWriter(6 + len(j.Password))
	w.PutUint32(j.RoomID)
	w.PutString(j.Password)
	return w.Bytes()
}

func DecodeJoinRoom(body []byte) (JoinRoom, error) {
	r := NewReader(body)
	var j JoinRoom
	var err error
	if j.RoomID, err = r.Uint32(); err != nil {
		return j, err
	}
	j.Password, err = r.String()
	return j, err
}

// JoinRoomResp reports the outcome of JoinRoom.
type JoinRoomResp struct {
	Result RoomError
	RoomID uint32
}

func (j JoinRoomResp) Encode() []byte {
	w := NewWriter(5)
	w.PutUint8(uint8(j.Result))
	w.PutUint32(j.RoomID)
	return w.Bytes()
}

func DecodeJoinRoomResp(body []byte) (JoinRoomResp, error) {
	r := NewReader(body)
	var j JoinRoomResp
	res, err := r.Uint8()
	if err != nil {
		return j, err
	}
	j.Result = RoomError(res)
	j.RoomID, err = r.Uint32()
	return j, err
}

// LeaveRoom asks the server to remove the sender from its current room.
type LeaveRoom struct{}

func (LeaveRoom) Encode() []byte { return nil }

// ListRoom requests the public room list.
type ListRoom struct{}

func (ListRoom) Encode() []byte { return nil }

// RoomSummary is one entry in a ListRoomResp.
type RoomSummary struct {
	RoomID      uint32
	Name        string
	PlayerCount uint8
	MaxPlayers  uint8
	Private     bool
}

// ListRoomResp is the public room directory.
type ListRoomResp struct {
	Rooms []RoomSummary
}

func (l ListRoomResp) Encode() []byte {
	w := NewWriter(2)
	w.PutUint16(uint16(len(l.Rooms)))
	for _, r := range l.Rooms {
		w.PutUint32(r.RoomID)
		w.PutString(r.Name)
		w.PutUint8(r.PlayerCount)
		w.PutUint8(r.MaxPlayers)
		w.PutBool(r.Private)
	}
	return w.Bytes()
}

func DecodeListRoomResp(body []byte) (ListRoomResp, error) {
	r := NewReader(body)
	var l ListRoomResp
	n, err := r.Uint16()
	if err != nil {
		return l, err
	}
	l.Rooms = make([]RoomSummary, 0, n)
	for i := 0; i < int(n); i++ {
		var s RoomSummary
		if s.RoomID, err = r.Uint32(); err != nil {
			return l, err
		}
		if s.Name, err = r.String(); err != nil {
			return l, err
		}
		if s.PlayerCount, err = r.Uint8(); err != nil {
			return l, err
		}
		if s.MaxPlayers, err = r.Uint8(); err != nil {
			return l, err
		}
		if s.Private, err = r.Bool(); err != nil {
			return l, err
		}
		l.Rooms = append(l.Rooms, s)
	}
	return l, nil
}

// MatchmakingReq asks the server to find or create a public room.
type MatchmakingReq struct{}

func (MatchmakingReq) Encode() []byte { return nil }

// MatchmakingResp reports the matchmaking outcome.
type MatchmakingResp struct {
	Result RoomError
	RoomID uint32
}

func (m MatchmakingResp) Encode() []byte {
	w := NewWriter(5)
	w.PutUint8(uint8(m.Result))
	w.PutUint32(m.RoomID)
	return w.Bytes()
}

func DecodeMatchmakingResp(body []byte) (MatchmakingResp, error) {
	r := NewReader(body)
	var m MatchmakingResp
	res, err := r.Uint8()
	if err != nil {
		return m, err
	}
	m.Result = RoomError(res)
	m.RoomID, err = r.Uint32()
	return m, err
}

// GameStart announces a room's transition to Running.
type GameStart struct {
	RoomID uint32
}

func (g GameStart) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(g.RoomID)
	return w.Bytes()
}

func DecodeGameStart(body []byte) (GameStart, error) {
	r := NewReader(body)
	id, err := r.Uint32()
	return GameStart{RoomID: id}, err
}

// GameEnd announces a room's transition to Finished.
type GameEnd struct {
	RoomID uint32
	Reason string
}

func (g GameEnd) Encode() []byte {
	w := NewWriter(6 + len(g.Reason))
	w.PutUint32(g.RoomID)
	w.PutString(g.Reason)
	return w.Bytes()
}

func DecodeGameEnd(body []byte) (GameEnd, error) {
	r := NewReader(body)
	var g GameEnd
	var err error
	if g.RoomID, err = r.Uint32(); err != nil {
		return g, err
	}
	g.Reason, err = r.String()
	return g, err
}

// --- gameplay --------------------------------------------------------

// Input bitmask flags, per spec.md section 4.5 point 1.
const (
	InputUp uint8 = 1 << iota
	InputDown
	InputLeft
	InputRight
)

// PlayerInput carries one tick's worth of movement/shoot intent.
type PlayerInput struct {
	Bitmask uint8
	Shoot   bool
	Seq     uint32
}

func (p PlayerInput) Encode() []byte {
	w := NewWriter(6)
	w.PutUint8(p.Bitmask)
	w.PutBool(p.Shoot)
	w.PutUint32(p.Seq)
	return w.Bytes()
}

func DecodePlayerInput(body []byte) (PlayerInput, error) {
	r := NewReader(body)
	var p PlayerInput
	var err error
	if p.Bitmask, err = r.Uint8(); err != nil {
		return p, err
	}
	if p.Shoot, err = r.Bool(); err != nil {
		return p, err
	}
	p.Seq, err = r.Uint32()
	return p, err
}

// NewPlayer announces a player entity to the room (broadcast on join, and
// replayed for every existing player back to the joiner).
type NewPlayer struct {
	PlayerID uint32
	Name     string
	X, Y     float32
	Speed    float32
	MaxHP    uint32
}

func (n NewPlayer) Encode() []byte {
	w := NewWriter(24 + len(n.Name))
	w.PutUint32(n.PlayerID)
	w.PutString(n.Name)
	w.PutFloat32(n.X)
	w.PutFloat32(n.Y)
	w.PutFloat32(n.Speed)
	w.PutUint32(n.MaxHP)
	return w.Bytes()
}

func DecodeNewPlayer(body []byte) (NewPlayer, error) {
	r := NewReader(body)
	var n NewPlayer
	var err error
	if n.PlayerID, err = r.Uint32(); err != nil {
		return n, err
	}
	if n.Name, err = r.String(); err != nil {
		return n, err
	}
	if n.X, err = r.Float32(); err != nil {
		return n, err
	}
	if n.Y, err = r.Float32(); err != nil {
		return n, err
	}
	if n.Speed, err = r.Float32(); err != nil {
		return n, err
	}
	n.MaxHP, err = r.Uint32()
	return n, err
}

// PositionUpdate is the unreliable per-tick broadcast consumed by client
// interpolation.
type PositionUpdate struct {
	EntityID uint32
	X, Y     float32
	Ts       float32 // server time in seconds, for StateHistory sampling
}

func (p PositionUpdate) Encode() []byte {
	w := NewWriter(16)
	w.PutUint32(p.EntityID)
	w.PutFloat32(p.X)
	w.PutFloat32(p.Y)
	w.PutFloat32(p.Ts)
	return w.Bytes()
}

func DecodePositionUpdate(body []byte) (PositionUpdate, error) {
	r := NewReader(body)
	var p PositionUpdate
	var err error
	if p.EntityID, err = r.Uint32(); err != nil {
		return p, err
	}
	if p.X, err = r.Float32(); err != nil {
		return p, err
	}
	if p.Y, err = r.Float32(); err != nil {
		return p, err
	}
	p.Ts, err = r.Float32()
	return p, err
}

// PlayerHit reports non-fatal damage to a player.
type PlayerHit struct {
	PlayerID  uint32
	Damage    uint32
	RemainingHP uint32
}

func (p PlayerHit) Encode() []byte {
	w := NewWriter(12)
	w.PutUint32(p.PlayerID)
	w.PutUint32(p.Damage)
	w.PutUint32(p.RemainingHP)
	return w.Bytes()
}

func DecodePlayerHit(body []byte) (PlayerHit, error) {
	r := NewReader(body)
	var p PlayerHit
	var err error
	if p.PlayerID, err = r.Uint32(); err != nil {
		return p, err
	}
	if p.Damage, err = r.Uint32(); err != nil {
		return p, err
	}
	p.RemainingHP, err = r.Uint32()
	return p, err
}

// PlayerDied announces a fatal hit, ahead of the PlayerDestroy that
// removes the entity.
type PlayerDied struct {
	PlayerID uint32
	Name     string
	KillerID uint32
}

func (p PlayerDied) Encode() []byte {
	w := NewWriter(10 + len(p.Name))
	w.PutUint32(p.PlayerID)
	w.PutString(p.Name)
	w.PutUint32(p.KillerID)
	return w.Bytes()
}

func DecodePlayerDied(body []byte) (PlayerDied, error) {
	r := NewReader(body)
	var p PlayerDied
	var err error
	if p.PlayerID, err = r.Uint32(); err != nil {
		return p, err
	}
	if p.Name, err = r.String(); err != nil {
		return p, err
	}
	p.KillerID, err = r.Uint32()
	return p, err
}

// PlayerDestroy removes a player entity from clients' worlds.
type PlayerDestroy struct {
	PlayerID uint32
}

func (p PlayerDestroy) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(p.PlayerID)
	return w.Bytes()
}

func DecodePlayerDestroy(body []byte) (PlayerDestroy, error) {
	r := NewReader(body)
	id, err := r.Uint32()
	return PlayerDestroy{PlayerID: id}, err
}

// PlayerDisconnect notifies the room that a player timed out or left.
type PlayerDisconnect struct {
	PlayerID uint32
}

func (p PlayerDisconnect) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(p.PlayerID)
	return w.Bytes()
}

func DecodePlayerDisconnect(body []byte) (PlayerDisconnect, error) {
	r := NewReader(body)
	id, err := r.Uint32()
	return PlayerDisconnect{PlayerID: id}, err
}

// PlayerShoot requests a projectile spawn from the sender's position.
type PlayerShoot struct {
	Seq uint32
}

func (p PlayerShoot) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(p.Seq)
	return w.Bytes()
}

func DecodePlayerShoot(body []byte) (PlayerShoot, error) {
	r := NewReader(body)
	seq, err := r.Uint32()
	return PlayerShoot{Seq: seq}, err
}

// EnemySpawn announces a new enemy entity.
type EnemySpawn struct {
	EnemyID  uint32
	Kind     uint8
	X, Y     float32
	MaxHP    uint32
}

func (e EnemySpawn) Encode() []byte {
	w := NewWriter(17)
	w.PutUint32(e.EnemyID)
	w.PutUint8(e.Kind)
	w.PutFloat32(e.X)
	w.PutFloat32(e.Y)
	w.PutUint32(e.MaxHP)
	return w.Bytes()
}

func DecodeEnemySpawn(body []byte) (EnemySpawn, error) {
	r := NewReader(body)
	var e EnemySpawn
	var err error
	if e.EnemyID, err = r.Uint32(); err != nil {
		return e, err
	}
	if e.Kind, err = r.Uint8(); err != nil {
		return e, err
	}
	if e.X, err = r.Float32(); err != nil {
		return e, err
	}
	if e.Y, err = r.Float32(); err != nil {
		return e, err
	}
	e.MaxHP, err = r.Uint32()
	return e, err
}

// EnemyMove is the unreliable per-tick enemy position broadcast.
type EnemyMove struct {
	EnemyID uint32
	X, Y    float32
}

func (e EnemyMove) Encode() []byte {
	w := NewWriter(12)
	w.PutUint32(e.EnemyID)
	w.PutFloat32(e.X)
	w.PutFloat32(e.Y)
	return w.Bytes()
}

func DecodeEnemyMove(body []byte) (EnemyMove, error) {
	r := NewReader(body)
	var e EnemyMove
	var err error
	if e.EnemyID, err = r.Uint32(); err != nil {
		return e, err
	}
	if e.X, err = r.Float32(); err != nil {
		return e, err
	}
	e.Y, err = r.Float32()
	return e, err
}

// EnemyHit reports non-fatal damage to an enemy.
type EnemyHit struct {
	EnemyID     uint32
	Damage      uint32
	RemainingHP uint32
}

func (e EnemyHit) Encode() []byte {
	w := NewWriter(12)
	w.PutUint32(e.EnemyID)
	w.PutUint32(e.Damage)
	w.PutUint32(e.RemainingHP)
	return w.Bytes()
}

func DecodeEnemyHit(body []byte) (EnemyHit, error) {
	r := NewReader(body)
	var e EnemyHit
	var err error
	if e.EnemyID, err = r.Uint32(); err != nil {
		return e, err
	}
	if e.Damage, err = r.Uint32(); err != nil {
		return e, err
	}
	e.RemainingHP, err = r.Uint32()
	return e, err
}

// EnemyDestroy reports a kill: the victim, its position (for effects),
// the killer and the score awarded.
type EnemyDestroy struct {
	EnemyID  uint32
	X, Y     float32
	KillerID uint32
	Score    uint32
}

func (e EnemyDestroy) Encode() []byte {
	w := NewWriter(20)
	w.PutUint32(e.EnemyID)
	w.PutFloat32(e.X)
	w.PutFloat32(e.Y)
	w.PutUint32(e.KillerID)
	w.PutUint32(e.Score)
	return w.Bytes()
}

func DecodeEnemyDestroy(body []byte) (EnemyDestroy, error) {
	r := NewReader(body)
	var e EnemyDestroy
	var err error
	if e.EnemyID, err = r.Uint32(); err != nil {
		return e, err
	}
	if e.X, err = r.Float32(); err != nil {
		return e, err
	}
	if e.Y, err = r.Float32(); err != nil {
		return e, err
	}
	if e.KillerID, err = r.Uint32(); err != nil {
		return e, err
	}
	e.Score, err = r.Uint32()
	return e, err
}

// ProjectileSpawn announces a new projectile entity.
type ProjectileSpawn struct {
	ProjectileID uint32
	Kind         uint8
	OwnerID      uint32
	X, Y         float32
	VX, VY       float32
}

func (p ProjectileSpawn) Encode() []byte {
	w := NewWriter(29)
	w.PutUint32(p.ProjectileID)
	w.PutUint8(p.Kind)
	w.PutUint32(p.OwnerID)
	w.PutFloat32(p.X)
	w.PutFloat32(p.Y)
	w.PutFloat32(p.VX)
	w.PutFloat32(p.VY)
	return w.Bytes()
}

func DecodeProjectileSpawn(body []byte) (ProjectileSpawn, error) {
	r := NewReader(body)
	var p ProjectileSpawn
	var err error
	if p.ProjectileID, err = r.Uint32(); err != nil {
		return p, err
	}
	if p.Kind, err = r.Uint8(); err != nil {
		return p, err
	}
	if p.OwnerID, err = r.Uint32(); err != nil {
		return p, err
	}
	if p.X, err = r.Float32(); err != nil {
		return p, err
	}
	if p.Y, err = r.Float32(); err != nil {
		return p, err
	}
	if p.VX, err = r.Float32(); err != nil {
		return p, err
	}
	p.VY, err = r.Float32()
	return p, err
}

// ProjectileHit reports a projectile striking a target (see EnemyHit /
// PlayerHit for damage effects; this carries only the projectile and
// target IDs).
type ProjectileHit struct {
	ProjectileID uint32
	TargetID     uint32
}

func (p ProjectileHit) Encode() []byte {
	w := NewWriter(8)
	w.PutUint32(p.ProjectileID)
	w.PutUint32(p.TargetID)
	return w.Bytes()
}

func DecodeProjectileHit(body []byte) (ProjectileHit, error) {
	r := NewReader(body)
	var p ProjectileHit
	var err error
	if p.ProjectileID, err = r.Uint32(); err != nil {
		return p, err
	}
	p.TargetID, err = r.Uint32()
	return p, err
}

// ProjectileDestroy removes a projectile entity (boundary exit or impact).
type ProjectileDestroy struct {
	ProjectileID uint32
}

func (p ProjectileDestroy) Encode() []byte {
	w := NewWriter(4)
	w.PutUint32(p.ProjectileID)
	return w.Bytes()
}

func DecodeProjectileDestroy(body []byte) (ProjectileDestroy, error) {
	r := NewReader(body)
	id, err := r.Uint32()
	return ProjectileDestroy{ProjectileID: id}, err
}

// ScoreboardReq asks the persistence layer for the top-N scores.
type ScoreboardReq struct {
	Limit uint8
}

func (s ScoreboardReq) Encode() []byte {
	w := NewWriter(1)
	w.PutUint8(s.Limit)
	return w.Bytes()
}

func DecodeScoreboardReq(body []byte) (ScoreboardReq, error) {
	r := NewReader(body)
	limit, err := r.Uint8()
	return ScoreboardReq{Limit: limit}, err
}

// ScoreEntry is one row of a ScoreboardResp.
type ScoreEntry struct {
	Name  string
	Score uint32
}

// ScoreboardResp returns the top-N scores.
type ScoreboardResp struct {
	Entries []ScoreEntry
}

func (s ScoreboardResp) Encode() []byte {
	w := NewWriter(2)
	w.PutUint16(uint16(len(s.Entries)))
	for _, e := range s.Entries {
		w.PutString(e.Name)
		w.PutUint32(e.Score)
	}
	return w.Bytes()
}

func DecodeScoreboardResp(body []byte) (ScoreboardResp, error) {
	r := NewReader(body)
	var s ScoreboardResp
	n, err := r.Uint16()
	if err != nil {
		return s, err
	}
	s.Entries = make([]ScoreEntry, 0, n)
	for i := 0; i < int(n); i++ {
		var e ScoreEntry
		if e.Name, err = r.String(); err != nil {
			return s, err
		}
		if e.Score, err = r.Uint32(); err != nil {
			return s, err
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}
