package solprogram

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// InstructionDiscriminators
func getDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("global:" + name))
	var disc [8]byte
	copy(disc[:], hash[:8])
	return disc
}

var (
	ParticipateDisc        = getDiscriminator(participateIx)
	ProcessStringInputDisc = getDiscriminator(processStringInputIx)
)

// ParticipateArgs - borsh arguments of participate
type ParticipateArgs struct {
	Currency    string
	Amount      uint64
	ChallengeID uint64
	PlayerID    *uint64
	Type        ParticipateType
}

// MarshalWithEncoder writes the args in IDL order:
// token string, amount u64, challenge_id u64, player_id Option<u64>,
// participate_type enum.
func (a ParticipateArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteString(a.Currency); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.ChallengeID, bin.LE); err != nil {
		return err
	}
	if err := enc.WriteOption(a.PlayerID != nil); err != nil {
		return err
	}
	if a.PlayerID != nil {
		if err := enc.WriteUint64(*a.PlayerID, bin.LE); err != nil {
			return err
		}
	}
	return enc.WriteUint8(uint8(a.Type))
}

// ParticipateAccounts - account list of participate
type ParticipateAccounts struct {
	User               solana.PublicKey
	UserTokenAccount   solana.PublicKey
	EscrowTokenAccount solana.PublicKey
	EscrowAccount      solana.PublicKey
}

// BuildParticipateInstruction builds the participate instruction used for
// joining a challenge and for side-bets.
func BuildParticipateInstruction(
	programID solana.PublicKey,
	accounts ParticipateAccounts,
	args ParticipateArgs,
) (solana.Instruction, error) {
	if args.Type != JoinChallenge && args.Type != SideBet {
		return nil, fmt.Errorf("invalid participate type: %d", args.Type)
	}

	data, err := encodeInstruction(ParticipateDisc, args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participate: %w", err)
	}

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(accounts.User).WRITE().SIGNER(),
			solana.Meta(accounts.UserTokenAccount).WRITE(),
			solana.Meta(accounts.EscrowTokenAccount).WRITE(),
			solana.Meta(accounts.EscrowAccount).WRITE(),
			solana.Meta(SystemProgramID),
			solana.Meta(TokenProgramID),
		},
		data,
	), nil
}

type stringInputArgs struct {
	Prompt string
	Answer string
}

func (a stringInputArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteString(a.Prompt); err != nil {
		return err
	}
	return enc.WriteString(a.Answer)
}

// BuildProcessStringInputInstruction builds process_string_input(prompt, answer)
// for the Never Have I Ever program.
func BuildProcessStringInputInstruction(
	programID solana.PublicKey,
	user solana.PublicKey,
	prompt string,
	answer string,
) (solana.Instruction, error) {
	data, err := encodeInstruction(ProcessStringInputDisc, stringInputArgs{Prompt: prompt, Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("failed to encode process_string_input: %w", err)
	}

	return solana.NewInstruction(
		programID,
		solana.AccountMetaSlice{
			solana.Meta(user).WRITE().SIGNER(),
			solana.Meta(SystemProgramID),
		},
		data,
	), nil
}

func encodeInstruction(disc [8]byte, args bin.BinaryMarshaler) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(disc[:], false); err != nil {
		return nil, err
	}
	if err := args.MarshalWithEncoder(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
