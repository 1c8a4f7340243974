// Package protocol defines the JSON messages exchanged with the NeuroBot
// backend and routes inbound messages to handler slots by their "type" tag.
//
// Inbound tags:
//
//	eeg_data       {"type":"eeg_data","eeg_data":[0.1,0.2]}
//	emotion        {"type":"emotion","emotion":"happy"}
//	chat_response  {"type":"chat_response","message":"hi"}
//	welcome        {"type":"welcome","message":"Connected to NeuroBot live feed"}
//	eeg_processed  {"type":"eeg_processed","record_id":7,"features":{...},"mood":"relaxed"}
//
// Any other tag (including the backend's "echo") is ignored.
//
// Outbound:
//
//	chat_message   {"type":"chat_message","message":"hello"}
package protocol
