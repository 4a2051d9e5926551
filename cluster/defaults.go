package cluster

// RPC URLs
const (
	RPCURLDevnet  = "https://api.devnet.solana.com"
	RPCURLMainnet = "https://api.mainnet-beta.solana.com"
)

const (
	genesisDevnet  = "EtWTRABZaYq6iMfeYKouRu166VU2xqa1wcaWoxPkrZBG"
	genesisMainnet = "5eykt4UsFv8P8NJdTREpY1vzqKqZKvdpKuc147dw2N9d"
)

func defaultDecimals() map[string]uint8 {
	return map[string]uint8{
		"SOL":  9,
		"USDC": 6,
		"BONK": 5,
		"SEND": 6,
	}
}

// DefaultSettings returns the built-in table for devnet, mainnet and staging.
// API keys are empty here and come from the environment.
func DefaultSettings() map[string]Settings {
	devnet := Settings{
		ProgramID:               "CATfsBsU5KLkpug5BzLK3j94Wm7mtCmdss14r4gWdbZz",
		NeverHaveIEverProgramID: "Bo8aBQrjNGBuUN27qL5yXiDCEd57ysUaax4HmwcknSJ3",
		NativeMint:              NativeMint,
		USDCMint:                "usdcjuyqxVrSMiXtn6oDbETAwhJLs6Q5ZxZ2qLqXg9i",
		BonkMint:                "bonkMLw9Gyn4F3dqwxaHgcqLQxvchiYLfjDjEVXCEMf",
		SendMint:                "send5CvJLQjEAASQjXfa1thdnDJkeMxXefZB3AMj1iF",
		EscrowAccount:           "CATcfUQ5wvdVFEWmky6jRoKKvCL6F4tvhXqTYQJ93eix",
		EscrowTokenAccount:      "uk9HVP7WrFYeyQpjE3g6oJt94WT9zdaRZiG8B94m1Tk",
		Treasury:                "8PR43J5oEEvW1guBdo9tLKhLXJ2kAujT6eiFTA3XPE42",
		RPCURL:                  RPCURLDevnet,
		BackendURL:              "https://apiv2.catoff.xyz",
		XDareServerURL:          "https://xdares-server.catoff.xyz",
		ExplorerCluster:         "devnet",
		GenesisHash:             genesisDevnet,
		Decimals:                defaultDecimals(),
	}

	staging := devnet
	staging.Decimals = defaultDecimals()
	staging.ProgramID = "CATsuZkMmitPNX2KFF5g9Z7qJpJgE6AYcuwBybDKKVK3"
	staging.EscrowAccount = "CATsE5puERsktWHV7juHFJALEWfshhScz6rDuSWqtkqJ"
	staging.BackendURL = "https://stagingapi2.catoff.xyz"

	mainnet := Settings{
		ProgramID:          "CATmfh29bJtF82sXykY4mGB2UWBPB8gVmHn6pX3azLCr",
		NativeMint:         NativeMint,
		USDCMint:           "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		BonkMint:           "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		SendMint:           "SENDdRQtYMWaQrBroBrJ2Q53fgVuq95CV9UPGEvpCxa",
		EscrowAccount:      "CATLzD3jRQyu6ifCpybnadt7MoHffJkFL6WtqGzjPAUC",
		EscrowTokenAccount: "57ADTUqMdJHDJJ9HW6CWY3CcYvBUWc11VTmsyBpRoPCZ",
		Treasury:           "8JPSTabyfZgfn8EuXimqRMbaBCPvPPPVurgUy5JxDWNa",
		RPCURL:             RPCURLMainnet,
		BackendURL:         "https://mainnet-apiv2.catoff.xyz",
		XDareServerURL:     "https://mainnet-xdares-server.catoff.xyz",
		GenesisHash:        genesisMainnet,
		Decimals:           defaultDecimals(),
	}

	return map[string]Settings{
		string(Devnet):  devnet,
		string(Mainnet): mainnet,
		string(Staging): staging,
	}
}
