// Package bonfidabot encodes instructions for the bonfida-bot on-chain program.
//
// The package is a pure mapping from typed parameters to a solana.Instruction:
// it keeps no state, performs no I/O and never signs. Each operation has one
// constructor:
//
//   - NewInitPoolInstruction (opcode 0): allocate the pool and its mint.
//   - NewInitOrderTrackerInstruction (opcode 1): bind an order tracker to an open orders account.
//   - NewCreatePoolInstruction (opcode 2): initial deposit and signal provider.
//   - NewDepositInstruction (opcode 3): buy pool tokens.
//   - NewCreateOrderInstruction (opcode 4): place a serum order for the pool.
//
// Payload layout and account order are the wire contract with the program.
// Variable sections (pool seed, deposit amounts, asset lists) are written in
// caller order without length prefixes, the program infers the counts from
// the payload and account list lengths.
//
// Integers go through U16, U32 and U64, whose constructors reject values that
// do not fit instead of truncating them. Every constructor fails with an error
// wrapping ErrRange, ErrArity or ErrMissingField, and never returns a partial
// instruction.
//
// Usage example:
//
//	seed, pool, err := bonfidabot.FindPoolSeed(programID, base)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	maxAssets, _ := bonfidabot.NewU32(10)
//	programs := bonfidabot.DefaultPrograms()
//	ix, err := bonfidabot.NewInitPoolInstruction(programID, &bonfidabot.InitPoolAccounts{
//	    SystemProgram: programs.System,
//	    RentSysvar:    programs.Rent,
//	    TokenProgram:  programs.Token,
//	    Pool:          pool,
//	    Mint:          mint,
//	    Payer:         payer,
//	}, &bonfidabot.InitPoolArgs{PoolSeed: seed, MaxAssets: maxAssets})
package bonfidabot
