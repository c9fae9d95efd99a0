// Package profile turns instrument identification into a device profile.
//
// A Profile is established once, immediately after the session is
// opened and identified, and is read-only afterwards. Everything the
// constraint and signal-generation layers need to know about the
// connected hardware lives here: the model family, the channel count,
// the installed options, and the composed capability set.
//
// # Families
//
// Supported families and the models that map to them:
//
//	AFG3K     AFG3011, AFG3021B, AFG3051C, AFG3101, AFG3151C, AFG3251, ...
//	AFG31K    AFG31021 .. AFG31252
//	AWG5K     AWG5002 .. AWG5014 (B/C revisions)
//	AWG7K     AWG7051 .. AWG7122 (B/C revisions)
//	AWG5200   AWG5202, AWG5204, AWG5208
//	TekScope  MSO44, MSO54, MSO58, MSO58B, MSO64B (internal AFG)
//
// # Capabilities
//
// Capabilities are composed per family rather than attached to the
// family constant, so a model that deviates from its family (an option
// removing burst, say) only needs a local override. The signal
// generator driver consults capabilities instead of switching on the
// family wherever it can.
package profile
